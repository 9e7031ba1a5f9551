package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientSearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/everything" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		query := r.URL.Query()
		if query.Get("q") != "Acme Corp" || query.Get("language") != "en" || query.Get("sortBy") != "relevancy" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if query.Get("from") != "2026-01-01" || query.Get("to") != "2026-01-31" || query.Get("pageSize") != "5" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status":"ok",
			"totalResults":1,
			"articles":[{"source":{"name":"Example Wire"},"title":"Acme beats estimates","url":"https://example.com/acme","publishedAt":"2026-01-15T09:00:00Z"}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("expected client to build: %v", err)
	}

	hits, err := client.Search(context.Background(), "Acme Corp", "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("expected search to succeed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if hits[0].Title != "Acme beats estimates" || hits[0].SourceName != "Example Wire" {
		t.Fatalf("unexpected hit: %#v", hits[0])
	}
}

func TestClientSearchProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"error","message":"apiKeyInvalid"}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{APIKey: "bad-key", BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("expected client to build: %v", err)
	}

	if _, err := client.Search(context.Background(), "Acme", "2026-01-01", "2026-01-31"); err == nil {
		t.Fatalf("expected provider error status to surface")
	}
}

func TestClientSearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","code":"rateLimited"}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("expected client to build: %v", err)
	}

	_, err = client.Search(context.Background(), "Acme", "2026-01-01", "2026-01-31")
	var httpErr *providerHTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected providerHTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", httpErr.StatusCode)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected missing api key to be rejected")
	}
}

func TestDisabledClientFailsSearch(t *testing.T) {
	client := NewDisabledClient()
	if client.Available() {
		t.Fatalf("disabled client must not report available")
	}
	if _, err := client.Search(context.Background(), "Acme", "2026-01-01", "2026-01-31"); !errors.Is(err, ErrNewsUnavailable) {
		t.Fatalf("expected ErrNewsUnavailable, got %v", err)
	}
}
