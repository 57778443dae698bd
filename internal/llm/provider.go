// Package llm wraps the chat-completion providers that turn a code diff
// into release notes. Providers are intentionally thin: prompt content and
// fallback policy live with the caller.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider is one chat-completion backend. Generate returns the model's
// text output; any transport, status or empty-response condition is an
// error and the caller decides how to degrade.
type Provider interface {
	Name() string
	Generate(ctx context.Context, apiKey, system, user string) (string, error)
}

// New selects a provider by configuration name.
func New(name string, maxTokens int) (Provider, error) {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai", "":
		return &OpenAI{Model: "gpt-4o-mini", MaxTokens: maxTokens, HTTP: httpClient}, nil
	case "anthropic":
		return &Anthropic{Model: "claude-3-5-haiku-latest", MaxTokens: maxTokens, HTTP: httpClient}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
}
