package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pkovar/news-sentiment-back/internal/domain"
)

func TestMemoryRepositoryCreateAndGetClonesJob(t *testing.T) {
	repo := NewMemoryJobsRepository()
	rating := 7.2
	job := &domain.Job{
		ID:     "job-1",
		Status: domain.JobStatusDone,
		Input: []domain.CompanyRequest{
			{CompanyName: "Acme", DateFrom: "2026-01-01", DateTo: "2026-01-31"},
		},
		Results:   []domain.CompanyResult{{CompanyName: "Acme", Rating: &rating}},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := repo.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	job.Input[0].CompanyName = "mutated"
	*job.Results[0].Rating = 0

	stored, err := repo.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Input[0].CompanyName != "Acme" {
		t.Fatalf("stored input mutated through caller reference: %#v", stored.Input[0])
	}
	if *stored.Results[0].Rating != 7.2 {
		t.Fatalf("stored rating mutated through caller reference: %v", *stored.Results[0].Rating)
	}

	// And mutating a returned copy must not leak back either.
	stored.Input[0].CompanyName = "mutated again"
	reread, _ := repo.GetJob(context.Background(), "job-1")
	if reread.Input[0].CompanyName != "Acme" {
		t.Fatalf("store mutated through returned reference: %#v", reread.Input[0])
	}
}

func TestMemoryRepositoryGetUnknownJob(t *testing.T) {
	repo := NewMemoryJobsRepository()
	if _, err := repo.GetJob(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryUpdateUnknownJob(t *testing.T) {
	repo := NewMemoryJobsRepository()
	err := repo.UpdateJob(context.Background(), &domain.Job{ID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryListJobsFiltersAndPaginates(t *testing.T) {
	repo := NewMemoryJobsRepository()
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		status := domain.JobStatusPending
		if i%2 == 0 {
			status = domain.JobStatusDone
		}
		job := &domain.Job{
			ID:        fmt.Sprintf("job-%d", i),
			Status:    status,
			Input:     []domain.CompanyRequest{{CompanyName: "Acme"}},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.CreateJob(context.Background(), job); err != nil {
			t.Fatalf("create job %d: %v", i, err)
		}
	}

	items, total, err := repo.ListJobs(context.Background(), domain.JobListFilter{
		Status: domain.JobStatusDone,
	})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3 done jobs, got total=%d len=%d", total, len(items))
	}
	if items[0].JobID != "job-4" {
		t.Fatalf("expected newest first, got %s", items[0].JobID)
	}

	page2, total, err := repo.ListJobs(context.Background(), domain.JobListFilter{
		Page:     2,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if total != 5 || len(page2) != 2 {
		t.Fatalf("expected total 5 with 2 items on page 2, got total=%d len=%d", total, len(page2))
	}
	if page2[0].JobID != "job-2" || page2[1].JobID != "job-1" {
		t.Fatalf("unexpected page 2 ordering: %s, %s", page2[0].JobID, page2[1].JobID)
	}

	empty, total, err := repo.ListJobs(context.Background(), domain.JobListFilter{Page: 9, PageSize: 2})
	if err != nil {
		t.Fatalf("list past the end: %v", err)
	}
	if total != 5 || len(empty) != 0 {
		t.Fatalf("expected empty page past the end, got %#v", empty)
	}

	from := base.Add(3 * time.Minute)
	recent, total, err := repo.ListJobs(context.Background(), domain.JobListFilter{From: &from})
	if err != nil {
		t.Fatalf("list with from filter: %v", err)
	}
	if total != 2 || len(recent) != 2 {
		t.Fatalf("expected 2 recent jobs, got total=%d len=%d", total, len(recent))
	}
}
