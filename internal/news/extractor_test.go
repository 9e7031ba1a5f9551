package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBodyExtractorPrefersArticleParagraphs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<p>Navigation junk</p>
			<article>
				<p>First   paragraph with
				odd    spacing.</p>
				<p></p>
				<p>Second paragraph.</p>
			</article>
		</body></html>`))
	}))
	defer server.Close()

	extractor := NewBodyExtractor(BodyExtractorConfig{Timeout: 2 * time.Second})
	text, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected extraction to succeed: %v", err)
	}
	want := "First paragraph with odd spacing.\n\nSecond paragraph."
	if text != want {
		t.Fatalf("got %q, want %q", text, want)
	}
}

func TestBodyExtractorFallsBackToBodyParagraphs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div><p>Plain page paragraph.</p></div></body></html>`))
	}))
	defer server.Close()

	extractor := NewBodyExtractor(BodyExtractorConfig{Timeout: 2 * time.Second})
	text, err := extractor.Extract(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("expected extraction to succeed: %v", err)
	}
	if text != "Plain page paragraph." {
		t.Fatalf("got %q", text)
	}
}

func TestBodyExtractorRejectsEmptyPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><div>no paragraphs here</div></body></html>`))
	}))
	defer server.Close()

	extractor := NewBodyExtractor(BodyExtractorConfig{Timeout: 2 * time.Second})
	if _, err := extractor.Extract(context.Background(), server.URL); err == nil {
		t.Fatalf("expected empty page to fail extraction")
	}
}

func TestBodyExtractorRejectsNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	extractor := NewBodyExtractor(BodyExtractorConfig{Timeout: 2 * time.Second})
	if _, err := extractor.Extract(context.Background(), server.URL); err == nil {
		t.Fatalf("expected 403 to fail extraction")
	}
}
