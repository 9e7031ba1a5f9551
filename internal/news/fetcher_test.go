package news

import (
	"context"
	"errors"
	"testing"
)

type fakeSearcher struct {
	hits []ArticleMeta
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, _, _, _ string) ([]ArticleMeta, error) {
	return f.hits, f.err
}

func (f *fakeSearcher) Available() bool { return true }

type fakeExtractor struct {
	text   map[string]string
	err    map[string]error
	called []string
}

func (f *fakeExtractor) Extract(_ context.Context, pageURL string) (string, error) {
	f.called = append(f.called, pageURL)
	if err, ok := f.err[pageURL]; ok {
		return "", err
	}
	return f.text[pageURL], nil
}

func TestFetchReturnsEmptySliceOnZeroHits(t *testing.T) {
	fetcher := NewFetcher(&fakeSearcher{}, &fakeExtractor{}, nil)

	articles, err := fetcher.Fetch(context.Background(), "Acme", "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("zero hits must not be an error: %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Fatalf("expected empty slice, got %#v", articles)
	}
}

func TestFetchPropagatesSearcherError(t *testing.T) {
	wantErr := errors.New("news provider down")
	fetcher := NewFetcher(&fakeSearcher{err: wantErr}, &fakeExtractor{}, nil)

	if _, err := fetcher.Fetch(context.Background(), "Acme", "2026-01-01", "2026-01-31"); !errors.Is(err, wantErr) {
		t.Fatalf("expected searcher error to propagate, got %v", err)
	}
}

func TestFetchSkipsHitsWithoutURL(t *testing.T) {
	searcher := &fakeSearcher{hits: []ArticleMeta{
		{Title: "no link"},
		{Title: "linked", URL: "https://news.example.com/a"},
	}}
	extractor := &fakeExtractor{text: map[string]string{
		"https://news.example.com/a": "Body text.",
	}}
	fetcher := NewFetcher(searcher, extractor, nil)

	articles, err := fetcher.Fetch(context.Background(), "Acme", "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("expected fetch to succeed: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "linked" {
		t.Fatalf("expected only the linked article, got %#v", articles)
	}
	if len(extractor.called) != 1 {
		t.Fatalf("extractor must not be called for urlless hits, got %v", extractor.called)
	}
}

func TestFetchMarksFailedExtractions(t *testing.T) {
	searcher := &fakeSearcher{hits: []ArticleMeta{
		{Title: "broken", URL: "https://news.example.com/broken"},
		{Title: "fine", URL: "https://news.example.com/fine"},
	}}
	extractor := &fakeExtractor{
		err:  map[string]error{"https://news.example.com/broken": errors.New("403 Forbidden")},
		text: map[string]string{"https://news.example.com/fine": "Headline block.\n\nActual body."},
	}
	fetcher := NewFetcher(searcher, extractor, nil)

	articles, err := fetcher.Fetch(context.Background(), "Acme", "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("one failed extraction must not abort the batch: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected both articles kept, got %d", len(articles))
	}
	if articles[0].Content != ContentUnavailable {
		t.Fatalf("expected unavailable marker, got %q", articles[0].Content)
	}
	if articles[1].Content != "Actual body." {
		t.Fatalf("expected lead paragraph stripped, got %q", articles[1].Content)
	}
}

func TestStripLeadParagraph(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"single paragraph kept", "Only paragraph.", "Only paragraph."},
		{"first paragraph dropped", "Byline header.\n\nReal body.\n\nMore body.", "Real body. More body."},
		{"marker passes through", ContentUnavailable, ContentUnavailable},
		{"empty input", "", ""},
	}
	for _, tc := range cases {
		if got := StripLeadParagraph(tc.in); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
