package pipeline

import (
	"context"
	"strings"

	"github.com/uncommithq/uncommit/backend/internal/github"
)

// MaxDiffChars bounds the concatenated diff handed to the LLM. The cutoff
// is hard, not boundary-aware.
const MaxDiffChars = 80000

// CompareFetcher retrieves the changed files between two commits.
type CompareFetcher interface {
	CompareCommits(ctx context.Context, token, owner, repo, base, head string) ([]github.CompareFile, error)
}

type DiffFetcher struct {
	Compare CompareFetcher
}

// Fetch formats each changed file as a "# <filename>" header plus its raw
// patch, joined by blank lines. Files without a computable patch (binary,
// oversized) are skipped.
func (f *DiffFetcher) Fetch(ctx context.Context, token, owner, repo, base, head string) (string, error) {
	files, err := f.Compare.CompareCommits(ctx, token, owner, repo, base, head)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, file := range files {
		if file.Patch == "" {
			continue
		}
		parts = append(parts, "# "+file.Filename+"\n"+file.Patch)
	}

	joined := strings.Join(parts, "\n\n")
	if len(joined) > MaxDiffChars {
		joined = joined[:MaxDiffChars]
	}
	return joined, nil
}
