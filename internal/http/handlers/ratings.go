package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkovar/news-sentiment-back/internal/domain"
	"github.com/pkovar/news-sentiment-back/internal/repository"
	"github.com/pkovar/news-sentiment-back/internal/service"
)

// Ratings serves the collection endpoint: POST submits a batch, GET lists
// recent jobs.
func (api *API) Ratings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		api.submitRatings(w, r)
	case http.MethodGet:
		api.listRatings(w, r)
	default:
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func (api *API) submitRatings(w http.ResponseWriter, r *http.Request) {
	var input []domain.CompanyRequest
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "body must be a JSON array of company requests")
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	payloadHash := hashPayload(input)
	if idempotencyKey != "" {
		if entry, ok := api.idempotency.Get(idempotencyKey); ok && entry.PayloadHash == payloadHash {
			writeJSON(w, http.StatusAccepted, map[string]any{"job_id": entry.JobID})
			return
		}
	}

	job, err := api.jobsService.Submit(r.Context(), input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to submit job")
		return
	}

	if idempotencyKey != "" {
		api.idempotency.Put(idempotencyKey, payloadHash, job.ID)
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID})
}

func (api *API) listRatings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.JobListFilter{
		Status:   domain.JobStatus(strings.TrimSpace(query.Get("status"))),
		Page:     parseIntOrDefault(query.Get("page"), 1),
		PageSize: parseIntOrDefault(query.Get("page_size"), 20),
	}

	items, total, err := api.jobsService.ListJobs(r.Context(), filter)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to list jobs")
		return
	}

	jobs := make([]map[string]any, 0, len(items))
	for _, item := range items {
		jobs = append(jobs, map[string]any{
			"job_id":     item.JobID,
			"status":     item.Status,
			"companies":  item.Companies,
			"created_at": item.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"total": total,
		"page":  filter.Page,
	})
}

// RatingJob serves the item endpoints: GET /v1/ratings/{id} returns results,
// GET /v1/ratings/{id}/status returns the lifecycle status.
func (api *API) RatingJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/ratings/")
	rest = strings.Trim(rest, "/")
	jobID, tail, _ := strings.Cut(rest, "/")
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "job_id is required")
		return
	}

	switch tail {
	case "status":
		api.ratingStatus(w, r, jobID)
	case "":
		api.ratingResult(w, r, jobID)
	default:
		writeError(w, r, http.StatusNotFound, "not_found", "unknown resource")
	}
}

func (api *API) ratingStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	status, err := api.jobsService.GetStatus(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

func (api *API) ratingResult(w http.ResponseWriter, r *http.Request, jobID string) {
	results, err := api.jobsService.GetResult(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
		case errors.Is(err, service.ErrNotReady):
			writeError(w, r, http.StatusConflict, "not_ready", "job results not ready")
		default:
			writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to load job")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func parseIntOrDefault(value string, fallback int) int {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
