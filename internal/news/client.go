package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var ErrNewsUnavailable = errors.New("news client unavailable")

// ArticleMeta is one search hit as returned by the news provider. Body text is
// not included; it has to be downloaded separately.
type ArticleMeta struct {
	Title       string
	URL         string
	PublishedAt string
	SourceName  string
}

// Searcher queries a news-search provider for coverage of one company inside
// a date range. An empty result is valid and distinct from a provider failure.
type Searcher interface {
	Search(ctx context.Context, query, from, to string) ([]ArticleMeta, error)
	Available() bool
}

type ClientConfig struct {
	APIKey     string
	BaseURL    string
	PageSize   int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to a NewsAPI-compatible /everything endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	pageSize   int
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient fails fast on a missing credential; a deliberately degraded client
// comes from NewDisabledClient instead.
func NewClient(config ClientConfig) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("news api key is required")
	}
	return newClient(config), nil
}

// NewDisabledClient builds a client without a credential. Available reports
// false and every Search fails with ErrNewsUnavailable. Used when the process
// explicitly opts into a degraded environment.
func NewDisabledClient() *Client {
	return newClient(ClientConfig{})
}

func newClient(config ClientConfig) *Client {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://newsapi.org/v2"
	}
	if config.PageSize <= 0 {
		config.PageSize = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}
	return &Client{
		apiKey:     strings.TrimSpace(config.APIKey),
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		pageSize:   config.PageSize,
		timeout:    config.Timeout,
		httpClient: config.HTTPClient,
	}
}

func (c *Client) Available() bool {
	return c.apiKey != ""
}

func (c *Client) Search(ctx context.Context, query, from, to string) ([]ArticleMeta, error) {
	if !c.Available() {
		return nil, ErrNewsUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from)
	params.Set("to", to)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	endpoint := c.baseURL + "/everything?" + params.Encode()
	httpRequest, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create news request: %w", err)
	}
	httpRequest.Header.Set("X-Api-Key", c.apiKey)
	httpRequest.Header.Set("Accept", "application/json")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("news timeout: %w", err)
		}
		return nil, fmt.Errorf("news transport error: %w", err)
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("read news body: %w", err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		message := strings.TrimSpace(string(body))
		if len(message) > 700 {
			message = message[:700]
		}
		return nil, &providerHTTPError{
			Provider:   "news",
			StatusCode: httpResponse.StatusCode,
			Message:    message,
		}
	}

	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}
	if raw.Status != "" && raw.Status != "ok" {
		return nil, fmt.Errorf("news provider status %q: %s", raw.Status, raw.Message)
	}

	articles := make([]ArticleMeta, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		articles = append(articles, ArticleMeta{
			Title:       item.Title,
			URL:         item.URL,
			PublishedAt: item.PublishedAt,
			SourceName:  item.Source.Name,
		})
	}
	return articles, nil
}

type searchResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

type providerHTTPError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *providerHTTPError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Message)
}
