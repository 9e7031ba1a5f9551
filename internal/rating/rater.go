package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkovar/news-sentiment-back/internal/cache"
)

// ErrValidation marks failures of the rater's own input/output contract:
// empty corpus, malformed provider response, out-of-range or incomplete
// ratings. Provider transport failures are reported separately.
var ErrValidation = errors.New("rating validation failed")

const (
	defaultMaxNewsCount  = 10
	defaultMaxNewsLength = 1000

	systemPrompt = "You are a financial analyst specialized in stock market news evaluation."

	userPromptHeader = `Please analyze the following stock market news articles. Rate each article on a scale from 0 to 10 based on its investment implications:
- 0 = Immediately sell the stock
- 5 = Hold the stock in portfolio
- 10 = Buy more of the stock

Provide your ratings in a JSON format with article indices as keys and scores as values. Only return the JSON without any explanations.

Example output format:
{
  "0": 7.5,
  "1": 3.2,
  ...
}

Here are the articles to analyze:`
)

type RaterConfig struct {
	Model         string
	MaxNewsCount  int
	MaxNewsLength int
}

// Rater shapes a list of news snippets, sends them to the scoring provider in
// one deterministic call and reduces the per-snippet scores to a single
// average in [0,10].
type Rater struct {
	client        ChatClient
	cache         *cache.RatingCache
	logger        *log.Logger
	model         string
	maxNewsCount  int
	maxNewsLength int
}

func NewRater(client ChatClient, ratingCache *cache.RatingCache, logger *log.Logger, config RaterConfig) *Rater {
	if strings.TrimSpace(config.Model) == "" {
		config.Model = "gpt-4o-mini"
	}
	if config.MaxNewsCount <= 0 {
		config.MaxNewsCount = defaultMaxNewsCount
	}
	if config.MaxNewsLength <= 0 {
		config.MaxNewsLength = defaultMaxNewsLength
	}
	return &Rater{
		client:        client,
		cache:         ratingCache,
		logger:        logger,
		model:         config.Model,
		maxNewsCount:  config.MaxNewsCount,
		maxNewsLength: config.MaxNewsLength,
	}
}

// ParseJSONNews decodes a JSON-encoded corpus into snippets. Every element
// must be a string.
func ParseJSONNews(raw []byte) ([]string, error) {
	var decoded []any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: invalid json corpus: %v", ErrValidation, err)
	}

	snippets := make([]string, 0, len(decoded))
	for index, item := range decoded {
		text, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: corpus item %d is not a string", ErrValidation, index)
		}
		snippets = append(snippets, text)
	}
	return snippets, nil
}

// LimitNewsCount cuts the list down to the configured maximum. The cut is a
// plain prefix, order preserved.
func (r *Rater) LimitNewsCount(snippets []string) []string {
	if len(snippets) <= r.maxNewsCount {
		return snippets
	}
	return snippets[:r.maxNewsCount]
}

// TruncateNews trims each snippet to the configured maximum rune length.
func (r *Rater) TruncateNews(snippets []string) []string {
	trimmed := make([]string, len(snippets))
	for i, snippet := range snippets {
		if utf8.RuneCountInString(snippet) <= r.maxNewsLength {
			trimmed[i] = snippet
			continue
		}
		runes := []rune(snippet)
		trimmed[i] = string(runes[:r.maxNewsLength])
	}
	return trimmed
}

// shapeNews applies both limits independently; either or both may fire.
func (r *Rater) shapeNews(snippets []string) []string {
	return r.TruncateNews(r.LimitNewsCount(snippets))
}

func (r *Rater) buildPrompt(snippets []string) string {
	var builder strings.Builder
	builder.WriteString(userPromptHeader)
	for index, snippet := range snippets {
		builder.WriteString(fmt.Sprintf("\n%d: %s", index, snippet))
	}
	return builder.String()
}

// parseRatings pulls the JSON object out of the provider's text response. The
// provider is asked for bare JSON but routinely wraps it in prose or code
// fences, so the substring between the first '{' and the last '}' is parsed.
func parseRatings(content string) (map[int]float64, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no json object in provider response", ErrValidation)
	}

	var decoded map[string]float64
	if err := json.Unmarshal([]byte(content[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode ratings: %v", ErrValidation, err)
	}

	ratings := make(map[int]float64, len(decoded))
	for key, score := range decoded {
		index, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("%w: rating key %q is not an index", ErrValidation, key)
		}
		if score < 0 || score > 10 {
			return nil, fmt.Errorf("%w: rating %.2f for index %d outside [0,10]", ErrValidation, score, index)
		}
		ratings[index] = score
	}
	return ratings, nil
}

// CalculateAverageRating returns the arithmetic mean rounded to two decimals.
// An empty rating set yields 0.0 by convention.
func CalculateAverageRating(ratings map[int]float64) float64 {
	if len(ratings) == 0 {
		return 0.0
	}
	total := 0.0
	for _, score := range ratings {
		total += score
	}
	return round2(total / float64(len(ratings)))
}

// RateNews scores the snippets and returns the averaged rating. Validation
// failures wrap ErrValidation; provider failures come back as-is.
func (r *Rater) RateNews(ctx context.Context, snippets []string) (float64, error) {
	shaped := r.shapeNews(snippets)
	if len(shaped) == 0 {
		return 0, fmt.Errorf("%w: cannot rate an empty news list", ErrValidation)
	}

	var signature string
	if r.cache != nil {
		signature = r.cache.Signature(r.model, shaped)
		if rating, ok := r.cache.Get(signature); ok {
			return rating, nil
		}
	}

	content, err := r.client.Complete(ctx, CompletionRequest{
		Model:       r.model,
		System:      systemPrompt,
		User:        r.buildPrompt(shaped),
		Temperature: 0,
	})
	if err != nil {
		return 0, err
	}

	ratings, err := parseRatings(content)
	if err != nil {
		return 0, err
	}

	if err := checkCompleteness(ratings, len(shaped)); err != nil {
		return 0, err
	}

	average := CalculateAverageRating(ratings)
	if r.cache != nil {
		r.cache.Set(signature, average)
	}
	if r.logger != nil {
		r.logger.Printf("rated news snippets=%d average=%.2f", len(shaped), average)
	}
	return average, nil
}

// checkCompleteness requires the rated index set to equal {0..expected-1}.
// Partial answers are a hard failure, never silently averaged.
func checkCompleteness(ratings map[int]float64, expected int) error {
	missing := make([]int, 0)
	for index := 0; index < expected; index++ {
		if _, ok := ratings[index]; !ok {
			missing = append(missing, index)
		}
	}
	extra := make([]int, 0)
	for index := range ratings {
		if index < 0 || index >= expected {
			extra = append(extra, index)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("%w: missing rating indices %v, unexpected %v", ErrValidation, missing, extra)
	}
	return nil
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
