package news

import (
	"context"
	"log"
	"strings"

	"github.com/pkovar/news-sentiment-back/internal/domain"
)

// ContentUnavailable marks an article whose body could not be downloaded or
// parsed. Fetch still returns those articles; the marker keeps the slot.
const ContentUnavailable = "[error] failed to download article"

// Fetcher retrieves candidate articles for one company and downloads their
// full body text. A provider failure propagates to the caller; a single
// article's extraction failure never aborts the batch.
type Fetcher struct {
	searcher  Searcher
	extractor Extractor
	logger    *log.Logger
}

func NewFetcher(searcher Searcher, extractor Extractor, logger *log.Logger) *Fetcher {
	return &Fetcher{
		searcher:  searcher,
		extractor: extractor,
		logger:    logger,
	}
}

// Fetch returns articles in provider order, capped by the searcher's page
// size. Zero hits yield an empty slice, not an error.
func (f *Fetcher) Fetch(ctx context.Context, company, from, to string) ([]domain.Article, error) {
	hits, err := f.searcher.Search(ctx, company, from, to)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		if f.logger != nil {
			f.logger.Printf("no articles found company=%q from=%s to=%s", company, from, to)
		}
		return []domain.Article{}, nil
	}

	articles := make([]domain.Article, 0, len(hits))
	for _, hit := range hits {
		if strings.TrimSpace(hit.URL) == "" {
			if f.logger != nil {
				f.logger.Printf("skipping article without url company=%q title=%q", company, hit.Title)
			}
			continue
		}

		content := ContentUnavailable
		text, extractErr := f.extractor.Extract(ctx, hit.URL)
		if extractErr != nil {
			if f.logger != nil {
				f.logger.Printf("article extraction failed url=%s err=%v", hit.URL, extractErr)
			}
		} else if strings.TrimSpace(text) != "" {
			content = strings.TrimSpace(text)
		}

		articles = append(articles, domain.Article{
			Title:       hit.Title,
			URL:         hit.URL,
			PublishedAt: hit.PublishedAt,
			SourceName:  hit.SourceName,
			Content:     StripLeadParagraph(content),
		})
	}

	return articles, nil
}

// StripLeadParagraph drops the first paragraph when the text has more than
// one. The first block is routinely byline/header boilerplate rather than
// article body. Remaining paragraphs are rejoined with single spaces.
func StripLeadParagraph(text string) string {
	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) > 1 {
		paragraphs = paragraphs[1:]
	}
	return strings.TrimSpace(strings.Join(paragraphs, " "))
}
