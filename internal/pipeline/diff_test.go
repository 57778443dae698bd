package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/uncommithq/uncommit/backend/internal/github"
)

type fakeCompare struct {
	files []github.CompareFile
}

func (f *fakeCompare) CompareCommits(_ context.Context, _, _, _, _, _ string) ([]github.CompareFile, error) {
	return f.files, nil
}

func TestDiffFormatting(t *testing.T) {
	f := &DiffFetcher{Compare: &fakeCompare{files: []github.CompareFile{
		{Filename: "main.go", Status: "modified", Patch: "@@ -1 +1 @@\n-old\n+new"},
		{Filename: "logo.png", Status: "modified"}, // binary, no patch
		{Filename: "util.go", Status: "added", Patch: "@@ -0,0 +1 @@\n+x"},
	}}}

	got, err := f.Fetch(context.Background(), "tok", "acme", "demo", "a", "b")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := "# main.go\n@@ -1 +1 @@\n-old\n+new\n\n# util.go\n@@ -0,0 +1 @@\n+x"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDiffEmpty(t *testing.T) {
	f := &DiffFetcher{Compare: &fakeCompare{}}
	got, err := f.Fetch(context.Background(), "tok", "acme", "demo", "a", "b")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestDiffTruncation(t *testing.T) {
	f := &DiffFetcher{Compare: &fakeCompare{files: []github.CompareFile{
		{Filename: "big.go", Patch: strings.Repeat("x", MaxDiffChars+5000)},
	}}}
	got, err := f.Fetch(context.Background(), "tok", "acme", "demo", "a", "b")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != MaxDiffChars {
		t.Fatalf("len = %d, want %d", len(got), MaxDiffChars)
	}
}
