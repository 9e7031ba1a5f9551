package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Extractor downloads a page and pulls out readable article text.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (string, error)
}

// HostLimiter rate-limits outbound downloads per hostname so that one run
// cannot hammer a single news site.
type HostLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if reqPerSec <= 0 {
		reqPerSec = 2
	}
	if burst <= 0 {
		burst = 4
	}
	return &HostLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (hl *HostLimiter) limiterFor(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.m[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.r, hl.b)
	hl.m[host] = lim
	return lim
}

func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return hl.limiterFor("_").Wait(ctx)
	}
	return hl.limiterFor(u.Host).Wait(ctx)
}

type BodyExtractorConfig struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	Limiter    *HostLimiter
	UserAgent  string
}

// BodyExtractor scrapes article body text out of a downloaded HTML page.
// Paragraphs are preserved as blank-line separated blocks so that callers can
// apply paragraph-level post-processing.
type BodyExtractor struct {
	timeout    time.Duration
	httpClient *http.Client
	limiter    *HostLimiter
	userAgent  string
}

func NewBodyExtractor(config BodyExtractorConfig) *BodyExtractor {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	if config.Limiter == nil {
		config.Limiter = NewHostLimiter(2, 4)
	}
	if strings.TrimSpace(config.UserAgent) == "" {
		config.UserAgent = "news-sentiment-back/1.0"
	}
	return &BodyExtractor{
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
		limiter:    config.Limiter,
		userAgent:  config.UserAgent,
	}
}

func (e *BodyExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	if err := e.limiter.WaitURL(ctx, pageURL); err != nil {
		return "", err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create article request: %w", err)
	}
	httpRequest.Header.Set("User-Agent", e.userAgent)
	httpRequest.Header.Set("Accept", "text/html")

	httpResponse, err := e.httpClient.Do(httpRequest)
	if err != nil {
		return "", fmt.Errorf("download article: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article returned %s", httpResponse.Status)
	}

	doc, err := goquery.NewDocumentFromReader(httpResponse.Body)
	if err != nil {
		return "", fmt.Errorf("parse article html: %w", err)
	}

	text := extractParagraphs(doc)
	if text == "" {
		return "", errors.New("no article text found")
	}
	return text, nil
}

// extractParagraphs prefers paragraphs inside an <article> element and falls
// back to all body paragraphs when the page has no semantic article markup.
func extractParagraphs(doc *goquery.Document) string {
	scope := doc.Find("article p")
	if scope.Length() == 0 {
		scope = doc.Find("body p")
	}

	paragraphs := make([]string, 0, scope.Length())
	scope.Each(func(_ int, selection *goquery.Selection) {
		paragraph := strings.TrimSpace(selection.Text())
		if paragraph == "" {
			return
		}
		paragraphs = append(paragraphs, strings.Join(strings.Fields(paragraph), " "))
	})

	return strings.Join(paragraphs, "\n\n")
}
