package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewSelectsProvider(t *testing.T) {
	p, err := New("openai", 0)
	if err != nil || p.Name() != "openai" {
		t.Fatalf("got %v, %v", p, err)
	}
	p, err = New("", 0)
	if err != nil || p.Name() != "openai" {
		t.Fatalf("default: got %v, %v", p, err)
	}
	p, err = New("Anthropic", 500)
	if err != nil || p.Name() != "anthropic" {
		t.Fatalf("got %v, %v", p, err)
	}
	if _, err := New("gemini", 0); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "## Fixes\n- bug"}},
			},
		})
	}))
	defer srv.Close()

	o := &OpenAI{Model: "gpt-4o-mini", MaxTokens: 1000, HTTP: srv.Client(), BaseURL: srv.URL}
	out, err := o.Generate(context.Background(), "sk-test", "sys", "user msg")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "## Fixes\n- bug" {
		t.Fatalf("out = %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotPayload["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", gotPayload["model"])
	}
	if gotPayload["max_completion_tokens"] != float64(1000) {
		t.Errorf("max_completion_tokens = %v", gotPayload["max_completion_tokens"])
	}
}

func TestOpenAIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	o := &OpenAI{Model: "gpt-4o-mini", MaxTokens: 1000, HTTP: srv.Client(), BaseURL: srv.URL}
	if _, err := o.Generate(context.Background(), "sk-test", "sys", "user"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestOpenAINoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	o := &OpenAI{Model: "gpt-4o-mini", MaxTokens: 1000, HTTP: srv.Client(), BaseURL: srv.URL}
	if _, err := o.Generate(context.Background(), "sk-test", "sys", "user"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestAnthropicGenerate(t *testing.T) {
	var gotKey, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "## Features\n- thing"},
			},
		})
	}))
	defer srv.Close()

	a := &Anthropic{Model: "claude-3-5-haiku-latest", MaxTokens: 1000, HTTP: srv.Client(), BaseURL: srv.URL}
	out, err := a.Generate(context.Background(), "ak-test", "sys", "user")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "## Features\n- thing" {
		t.Fatalf("out = %q", out)
	}
	if gotKey != "ak-test" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion == "" {
		t.Error("anthropic-version header missing")
	}
}

func TestAnthropicNoTextBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"type": "tool_use"}},
		})
	}))
	defer srv.Close()

	a := &Anthropic{Model: "claude-3-5-haiku-latest", MaxTokens: 1000, HTTP: srv.Client(), BaseURL: srv.URL}
	if _, err := a.Generate(context.Background(), "ak-test", "sys", "user"); err == nil {
		t.Fatal("expected error without text content")
	}
}
