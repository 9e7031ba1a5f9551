package domain

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
)

// CompanyRequest is one entry of a submitted batch: rate the news coverage of
// a single company inside a date range. Dates are YYYY-MM-DD strings passed
// through to the news provider unchanged.
type CompanyRequest struct {
	CompanyName string `json:"company_name"`
	DateFrom    string `json:"date_from"`
	DateTo      string `json:"date_to"`
}

// CompanyResult is the terminal outcome for one requested company. Error is
// set when the fetch stage failed; Rating stays nil when there was nothing to
// rate or the rating stage failed.
type CompanyResult struct {
	CompanyName string   `json:"company_name"`
	Rating      *float64 `json:"rating"`
	Error       string   `json:"error,omitempty"`
}

// Job is the canonical async unit: one batch rating request and its lifecycle.
// Status moves pending -> processing -> done and never rolls back; per-company
// failures are encoded in Results, not in the status.
type Job struct {
	ID           string
	Status       JobStatus
	Input        []CompanyRequest
	Results      []CompanyResult
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// QueueMessage is the transport record sent to queue backends. The job input
// itself travels through the store; the queue only carries the handle.
type QueueMessage struct {
	JobID       string    `json:"job_id"`
	Attempt     int       `json:"attempt"`
	RequestedAt time.Time `json:"requested_at"`
}

// Article is the ephemeral unit produced by the fetch stage for one company.
// Content holds extracted body text, or a fixed sentinel marker when the
// download/extraction failed.
type Article struct {
	Title       string
	URL         string
	PublishedAt string
	SourceName  string
	Content     string
}

type JobListFilter struct {
	Status   JobStatus
	Page     int
	PageSize int
	From     *time.Time
	To       *time.Time
}

type JobListItem struct {
	JobID     string
	Status    JobStatus
	Companies int
	CreatedAt time.Time
}
