package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkovar/news-sentiment-back/internal/domain"
	"github.com/pkovar/news-sentiment-back/internal/repository"
)

type fakeFetcher struct {
	articles map[string][]domain.Article
	errs     map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, company, _, _ string) ([]domain.Article, error) {
	if err, ok := f.errs[company]; ok {
		return nil, err
	}
	return f.articles[company], nil
}

type fakeRater struct {
	score      float64
	err        error
	lastCorpus []string
}

func (f *fakeRater) RateNews(_ context.Context, snippets []string) (float64, error) {
	f.lastCorpus = snippets
	if f.err != nil {
		return 0, f.err
	}
	return f.score, nil
}

func seedJob(t *testing.T, repo repository.JobsRepository, companies ...string) domain.Job {
	t.Helper()
	input := make([]domain.CompanyRequest, 0, len(companies))
	for _, name := range companies {
		input = append(input, domain.CompanyRequest{
			CompanyName: name,
			DateFrom:    "2026-01-01",
			DateTo:      "2026-01-31",
		})
	}
	job := domain.Job{
		ID:        "job-" + companies[0],
		Status:    domain.JobStatusPending,
		Input:     input,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.CreateJob(context.Background(), &job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestProcessMessageRatesCompanies(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	job := seedJob(t, repo, "Acme")

	fetcher := &fakeFetcher{articles: map[string][]domain.Article{
		"Acme": {
			{Title: "Acme up", Content: "Shares rallied."},
			{Title: "Acme deal", Content: "New contract signed."},
		},
	}}
	rater := &fakeRater{score: 6.0}
	processor := NewProcessor(nil, repo, fetcher, rater, nil)

	if err := processor.processMessage(context.Background(), domain.QueueMessage{JobID: job.ID}); err != nil {
		t.Fatalf("expected processing to succeed: %v", err)
	}

	stored, err := repo.GetJob(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("load job: %v", err)
	}
	if stored.Status != domain.JobStatusDone {
		t.Fatalf("expected done, got %s", stored.Status)
	}
	if len(stored.Results) != len(stored.Input) {
		t.Fatalf("expected one result per company, got %d", len(stored.Results))
	}
	result := stored.Results[0]
	if result.CompanyName != "Acme" || result.Error != "" {
		t.Fatalf("unexpected result: %#v", result)
	}
	if result.Rating == nil || *result.Rating != 6.0 {
		t.Fatalf("expected rating 6.0, got %#v", result.Rating)
	}
	if len(rater.lastCorpus) != 2 || rater.lastCorpus[0] != "Acme up Shares rallied." {
		t.Fatalf("unexpected corpus: %#v", rater.lastCorpus)
	}
}

func TestProcessMessageZeroArticlesYieldsNilRating(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	job := seedJob(t, repo, "Ghost")

	processor := NewProcessor(nil, repo, &fakeFetcher{}, &fakeRater{score: 9}, nil)
	if err := processor.processMessage(context.Background(), domain.QueueMessage{JobID: job.ID}); err != nil {
		t.Fatalf("expected processing to succeed: %v", err)
	}

	stored, _ := repo.GetJob(context.Background(), job.ID)
	if stored.Status != domain.JobStatusDone {
		t.Fatalf("expected done, got %s", stored.Status)
	}
	result := stored.Results[0]
	if result.Rating != nil || result.Error != "" {
		t.Fatalf("expected nil rating and no error, got %#v", result)
	}
}

func TestProcessMessageFetchErrorFillsErrorField(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	job := seedJob(t, repo, "Broken", "Fine")

	fetcher := &fakeFetcher{
		errs: map[string]error{"Broken": errors.New("news provider down")},
		articles: map[string][]domain.Article{
			"Fine": {{Title: "Fine news", Content: "Body."}},
		},
	}
	processor := NewProcessor(nil, repo, fetcher, &fakeRater{score: 7.5}, nil)
	if err := processor.processMessage(context.Background(), domain.QueueMessage{JobID: job.ID}); err != nil {
		t.Fatalf("one failed company must not fail the job: %v", err)
	}

	stored, _ := repo.GetJob(context.Background(), job.ID)
	if stored.Status != domain.JobStatusDone {
		t.Fatalf("expected done, got %s", stored.Status)
	}
	if len(stored.Results) != 2 {
		t.Fatalf("expected both companies in results, got %d", len(stored.Results))
	}
	if stored.Results[0].CompanyName != "Broken" || stored.Results[0].Error == "" || stored.Results[0].Rating != nil {
		t.Fatalf("expected error result first, got %#v", stored.Results[0])
	}
	if stored.Results[1].CompanyName != "Fine" || stored.Results[1].Rating == nil || *stored.Results[1].Rating != 7.5 {
		t.Fatalf("expected rated result second, got %#v", stored.Results[1])
	}
}

func TestProcessMessageRatingErrorYieldsNilRating(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	job := seedJob(t, repo, "Acme")

	fetcher := &fakeFetcher{articles: map[string][]domain.Article{
		"Acme": {{Title: "Acme", Content: "Body."}},
	}}
	processor := NewProcessor(nil, repo, fetcher, &fakeRater{err: errors.New("provider 500")}, nil)
	if err := processor.processMessage(context.Background(), domain.QueueMessage{JobID: job.ID}); err != nil {
		t.Fatalf("rating failure must not fail the job: %v", err)
	}

	stored, _ := repo.GetJob(context.Background(), job.ID)
	result := stored.Results[0]
	if result.Rating != nil || result.Error != "" {
		t.Fatalf("expected nil rating without error message, got %#v", result)
	}
}

func TestProcessMessageUnknownJobIsDropped(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	processor := NewProcessor(nil, repo, &fakeFetcher{}, &fakeRater{}, nil)

	if err := processor.processMessage(context.Background(), domain.QueueMessage{JobID: "missing"}); err != nil {
		t.Fatalf("unknown job must be a no-op, got %v", err)
	}
}

func TestProcessMessageSkipsCompletedJobs(t *testing.T) {
	repo := repository.NewMemoryJobsRepository()
	job := seedJob(t, repo, "Acme")

	job.Status = domain.JobStatusDone
	rating := 4.0
	job.Results = []domain.CompanyResult{{CompanyName: "Acme", Rating: &rating}}
	if err := repo.UpdateJob(context.Background(), &job); err != nil {
		t.Fatalf("update job: %v", err)
	}

	fetcher := &fakeFetcher{errs: map[string]error{"Acme": errors.New("must not be called")}}
	processor := NewProcessor(nil, repo, fetcher, &fakeRater{}, nil)
	if err := processor.processMessage(context.Background(), domain.QueueMessage{JobID: job.ID}); err != nil {
		t.Fatalf("redelivered done job must be a no-op, got %v", err)
	}

	stored, _ := repo.GetJob(context.Background(), job.ID)
	if stored.Results[0].Rating == nil || *stored.Results[0].Rating != 4.0 {
		t.Fatalf("completed results must stay untouched, got %#v", stored.Results[0])
	}
}

func TestBuildCorpusSkipsEmptyContent(t *testing.T) {
	corpus := buildCorpus([]domain.Article{
		{Title: "kept", Content: "body"},
		{Title: "dropped", Content: ""},
		{Title: "", Content: "orphan body"},
	})
	if len(corpus) != 2 {
		t.Fatalf("expected two corpus entries, got %#v", corpus)
	}
	if corpus[0] != "kept body" || corpus[1] != "orphan body" {
		t.Fatalf("unexpected corpus shaping: %#v", corpus)
	}
}
