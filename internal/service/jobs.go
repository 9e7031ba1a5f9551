package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkovar/news-sentiment-back/internal/domain"
	"github.com/pkovar/news-sentiment-back/internal/queue"
	"github.com/pkovar/news-sentiment-back/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid job input")

	// ErrNotReady is returned when results are requested before the job
	// reached its done status.
	ErrNotReady = errors.New("job results not ready")
)

type JobsService struct {
	repo     repository.JobsRepository
	producer queue.Producer
}

func NewJobsService(repo repository.JobsRepository, producer queue.Producer) *JobsService {
	return &JobsService{repo: repo, producer: producer}
}

// Submit creates a pending job for the batch and hands it to the queue. The
// call returns as soon as the job is enqueued; processing is asynchronous.
func (s *JobsService) Submit(ctx context.Context, input []domain.CompanyRequest) (*domain.Job, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: at least one company is required", ErrInvalidInput)
	}
	for index, company := range input {
		if strings.TrimSpace(company.CompanyName) == "" {
			return nil, fmt.Errorf("%w: company %d has no name", ErrInvalidInput, index)
		}
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.JobStatusPending,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	message := domain.QueueMessage{
		JobID:       job.ID,
		Attempt:     0,
		RequestedAt: now,
	}
	if err := s.producer.Enqueue(ctx, message); err != nil {
		job.ErrorMessage = err.Error()
		job.UpdatedAt = time.Now().UTC()
		_ = s.repo.UpdateJob(ctx, job)
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

func (s *JobsService) GetStatus(ctx context.Context, jobID string) (domain.JobStatus, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// GetResult returns the per-company results. Defined only once the job is
// done; before that it fails with ErrNotReady.
func (s *JobsService) GetResult(ctx context.Context, jobID string) ([]domain.CompanyResult, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobStatusDone {
		return nil, ErrNotReady
	}
	return job.Results, nil
}

func (s *JobsService) ListJobs(
	ctx context.Context,
	filter domain.JobListFilter,
) ([]domain.JobListItem, int, error) {
	return s.repo.ListJobs(ctx, filter)
}
