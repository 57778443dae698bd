package github

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient()
	c.HTTP = srv.Client()
	c.BaseURL = srv.URL
	return c
}

func TestFileContentAtRef(t *testing.T) {
	// GitHub wraps base64 content with newlines.
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"version":"1.2.0"}`))
	wrapped := encoded[:10] + `\n` + encoded[10:]

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/demo/contents/package.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "abc123" {
			t.Errorf("ref = %q", r.URL.Query().Get("ref"))
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("auth = %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"type":"file","encoding":"base64","content":"` + wrapped + `"}`))
	}))
	defer srv.Close()

	content, ok, err := testClient(srv).FileContentAtRef(context.Background(), "tok", "acme", "demo", "package.json", "abc123")
	if err != nil {
		t.Fatalf("FileContentAtRef: %v", err)
	}
	if !ok || content != `{"version":"1.2.0"}` {
		t.Fatalf("got %q, %v", content, ok)
	}
}

func TestFileContentAtRefAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, ok, err := testClient(srv).FileContentAtRef(context.Background(), "tok", "acme", "demo", "missing.json", "abc")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if ok {
		t.Fatal("404 reported as present")
	}
}

func TestFileContentAtRefDirectory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"type":"file","name":"a.txt"}]`))
	}))
	defer srv.Close()

	_, ok, err := testClient(srv).FileContentAtRef(context.Background(), "tok", "acme", "demo", "src", "abc")
	if err != nil {
		t.Fatalf("directory should not be an error: %v", err)
	}
	if ok {
		t.Fatal("directory reported as a file")
	}
}

func TestFileContentAtRefServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := testClient(srv).FileContentAtRef(context.Background(), "tok", "acme", "demo", "package.json", "abc")
	if err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestCompareCommits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/demo/compare/a...b" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"files":[
			{"filename":"main.go","status":"modified","patch":"@@ -1 +1 @@"},
			{"filename":"logo.png","status":"added"}
		]}`))
	}))
	defer srv.Close()

	files, err := testClient(srv).CompareCommits(context.Background(), "tok", "acme", "demo", "a", "b")
	if err != nil {
		t.Fatalf("CompareCommits: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	if files[0].Filename != "main.go" || files[0].Patch != "@@ -1 +1 @@" {
		t.Errorf("files[0] = %+v", files[0])
	}
	if files[1].Patch != "" {
		t.Errorf("binary file has patch: %+v", files[1])
	}
}
