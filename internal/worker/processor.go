package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkovar/news-sentiment-back/internal/domain"
	"github.com/pkovar/news-sentiment-back/internal/queue"
	"github.com/pkovar/news-sentiment-back/internal/repository"
)

// ArticleFetcher retrieves and extracts news coverage for one company.
type ArticleFetcher interface {
	Fetch(ctx context.Context, company, from, to string) ([]domain.Article, error)
}

// NewsRater reduces a company's text corpus to one averaged score.
type NewsRater interface {
	RateNews(ctx context.Context, snippets []string) (float64, error)
}

// Processor consumes queue messages and runs the rating pipeline for each
// job: pending -> processing -> done, with every per-company failure isolated
// into that company's result.
type Processor struct {
	consumer queue.Consumer
	repo     repository.JobsRepository
	fetcher  ArticleFetcher
	rater    NewsRater
	logger   *log.Logger
}

func NewProcessor(
	consumer queue.Consumer,
	repo repository.JobsRepository,
	fetcher ArticleFetcher,
	rater NewsRater,
	logger *log.Logger,
) *Processor {
	return &Processor{
		consumer: consumer,
		repo:     repo,
		fetcher:  fetcher,
		rater:    rater,
		logger:   logger,
	}
}

// Start runs one consume loop until the context is cancelled, restarting the
// consumer after transient failures.
func (p *Processor) Start(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		err := p.consumer.Consume(ctx, p.processMessage)
		if err == nil || ctx.Err() != nil {
			return
		}
		if p.logger != nil {
			p.logger.Printf("worker consume loop error: %v", err)
		}

		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// StartPool runs the given number of concurrent consume loops. Jobs are
// processed concurrently with each other; companies inside one job stay
// strictly sequential.
func (p *Processor) StartPool(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			p.Start(groupCtx)
			return nil
		})
	}
	_ = group.Wait()
}

// processMessage is the job state machine. Only a storage failure propagates
// to the queue (triggering bounded redelivery and eventually the DLQ); an
// unknown job id is a logged no-op.
func (p *Processor) processMessage(ctx context.Context, message domain.QueueMessage) error {
	job, err := p.repo.GetJob(ctx, message.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if p.logger != nil {
				p.logger.Printf("job not found, dropping message job_id=%s", message.JobID)
			}
			return nil
		}
		return fmt.Errorf("load job %s: %w", message.JobID, err)
	}

	if job.Status == domain.JobStatusDone {
		// Redelivered after a completed run; nothing left to do.
		return nil
	}

	job.Status = domain.JobStatusProcessing
	job.UpdatedAt = time.Now().UTC()
	if err := p.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	results := make([]domain.CompanyResult, 0, len(job.Input))
	for _, company := range job.Input {
		results = append(results, p.processCompany(ctx, company))
	}

	job.Results = results
	job.Status = domain.JobStatusDone
	job.UpdatedAt = time.Now().UTC()
	if err := p.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}

	if p.logger != nil {
		p.logger.Printf("job processed job_id=%s companies=%d", job.ID, len(results))
	}
	return nil
}

// processCompany never fails the job: a fetch-stage error becomes the
// company's error message, a rating-stage error or an empty corpus becomes a
// nil rating.
func (p *Processor) processCompany(ctx context.Context, request domain.CompanyRequest) domain.CompanyResult {
	articles, err := p.fetcher.Fetch(ctx, request.CompanyName, request.DateFrom, request.DateTo)
	if err != nil {
		if p.logger != nil {
			p.logger.Printf("fetch stage failed company=%q err=%v", request.CompanyName, err)
		}
		return domain.CompanyResult{CompanyName: request.CompanyName, Error: err.Error()}
	}

	corpus := buildCorpus(articles)
	if len(corpus) == 0 {
		// Nothing to rate is a valid terminal outcome, not a failure.
		return domain.CompanyResult{CompanyName: request.CompanyName}
	}

	score, err := p.rater.RateNews(ctx, corpus)
	if err != nil {
		if p.logger != nil {
			p.logger.Printf("rating stage failed company=%q err=%v", request.CompanyName, err)
		}
		return domain.CompanyResult{CompanyName: request.CompanyName}
	}

	return domain.CompanyResult{CompanyName: request.CompanyName, Rating: &score}
}

// buildCorpus concatenates title and content per article, title first with a
// single separating space, skipping articles without content.
func buildCorpus(articles []domain.Article) []string {
	corpus := make([]string, 0, len(articles))
	for _, article := range articles {
		if article.Content == "" {
			continue
		}
		corpus = append(corpus, strings.TrimSpace(article.Title+" "+article.Content))
	}
	return corpus
}
