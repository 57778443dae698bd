package pipeline

import (
	"fmt"

	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/cryptox"
	"github.com/uncommithq/uncommit/backend/internal/github"
	"github.com/uncommithq/uncommit/backend/internal/llm"
	"github.com/uncommithq/uncommit/backend/internal/store"
)

// New wires a Pipeline from configuration. Both the API process (inline
// fallback) and the worker build theirs here.
func New(cfg config.Config, st *store.Store) (*Pipeline, error) {
	if cfg.GitHubAppID == "" || cfg.GitHubAppPrivateKey == "" {
		return nil, fmt.Errorf("github app credentials are required")
	}
	appAuth, err := github.NewAppAuth(cfg.GitHubAppID, cfg.GitHubAppPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("github app auth: %w", err)
	}

	// A missing provider or server key is not fatal: generation degrades to
	// the maintenance fallback, releases still ship.
	provider, err := llm.New(cfg.LLMProvider, 0)
	if err != nil {
		return nil, err
	}
	serverKey := cfg.OpenAIAPIKey
	if cfg.LLMProvider == "anthropic" {
		serverKey = cfg.AnthropicAPIKey
	}

	var encKey []byte
	if cfg.TokenEncKeyB64 != "" {
		encKey, err = cryptox.KeyFromB64(cfg.TokenEncKeyB64)
		if err != nil {
			return nil, fmt.Errorf("token encryption key: %w", err)
		}
	}

	gh := github.NewClient()
	return &Pipeline{
		Tokens:     appAuth,
		Contents:   gh,
		Compare:    gh,
		Comments:   gh,
		Projects:   st,
		Posts:      st,
		Generator:  &Generator{Provider: provider, APIKey: serverKey},
		AppBaseURL: cfg.AppBaseURL,
		EncKey:     encKey,
	}, nil
}
