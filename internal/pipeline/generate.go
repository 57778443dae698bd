package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uncommithq/uncommit/backend/internal/llm"
)

// FallbackNotes is returned whenever release notes cannot be generated.
// A release is never blocked on AI failure.
const FallbackNotes = "Maintenance release."

const systemPrompt = `Generate release notes from code diffs. Rules:
- No emojis
- No title (GitHub shows it)
- Minimal, concise, comprehensive
- Only sections with changes (omit empty ones)
- Markdown ## headers: Features, Fixes, Improvements, Breaking Changes
- User-facing changes only
- Version-only bump = "Maintenance release."`

type Generator struct {
	Provider llm.Provider
	// APIKey is the server-managed provider key; a per-project key, when
	// set, takes precedence.
	APIKey string
}

// Notes produces markdown release notes for the version. Any failure mode
// (no key, empty diff, provider error, empty output) degrades to
// FallbackNotes.
func (g *Generator) Notes(ctx context.Context, version, diff, projectAPIKey string) string {
	apiKey := g.APIKey
	if projectAPIKey != "" {
		apiKey = projectAPIKey
	}
	if apiKey == "" || diff == "" || g.Provider == nil {
		return FallbackNotes
	}

	user := fmt.Sprintf("Generate release notes for v%s.\n\nCode diff:\n%s", version, diff)

	out, err := g.Provider.Generate(ctx, apiKey, systemPrompt, user)
	if err != nil {
		slog.Warn("changelog generation failed, using fallback",
			"provider", g.Provider.Name(),
			"version", version,
			"error", err,
		)
		return FallbackNotes
	}
	if strings.TrimSpace(out) == "" {
		return FallbackNotes
	}
	return out
}
