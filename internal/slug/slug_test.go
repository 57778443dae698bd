package slug

import "testing"

func TestBase(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"1.2.0", "1-2-0"},
		{"Fix bug", "fix-bug"},
		{"  Hello,  World!  ", "hello-world"},
		{"v2.0.0-beta.1", "v2-0-0-beta-1"},
		{"---", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := Base(c.in); got != c.want {
			t.Fatalf("Base(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestForPost(t *testing.T) {
	if got := ForPost("1.2.0", "Fix bug"); got != "1-2-0-fix-bug" {
		t.Fatalf("ForPost = %q, want 1-2-0-fix-bug", got)
	}
	// Deterministic: repeated calls agree.
	a := ForPost("3.0.0", "v3.0.0")
	b := ForPost("3.0.0", "v3.0.0")
	if a != b {
		t.Fatalf("ForPost not deterministic: %q vs %q", a, b)
	}
	// Different titles under the same version diverge.
	if ForPost("1.0.0", "First") == ForPost("1.0.0", "Second") {
		t.Fatal("distinct titles produced identical slugs")
	}
}

func TestForPostCollapsesHyphenRuns(t *testing.T) {
	if got := ForPost("1.0.0", "!!"); got != "1-0-0" {
		t.Fatalf("ForPost collapsed = %q, want 1-0-0", got)
	}
}
