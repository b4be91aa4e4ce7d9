package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/orchestra-ai/internal/api/middleware"
	"github.com/dvloznov/orchestra-ai/internal/jobs"
	"github.com/dvloznov/orchestra-ai/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxUploadMemory bounds the multipart form kept in memory.
const maxUploadMemory = 10 << 20

// JobsHandler handles integration syncs, statement uploads and their jobs.
type JobsHandler struct {
	session   *session.Session
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(s *session.Session, publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		session:   s,
		publisher: publisher,
		store:     store,
		log:       log,
	}
}

// SyncIntegration handles POST /api/integrations/{name}/sync
func (h *JobsHandler) SyncIntegration(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := h.session.View().Integration(name); !ok {
		middleware.WriteError(w, http.StatusNotFound, "Integration not found")
		return
	}

	h.enqueue(w, r, jobs.NewSyncIntegrationJob(name))
}

// UploadFile handles POST /api/uploads
//
// Accepts a multipart form with a "file" field, or a JSON body naming the
// file. The content itself is never read.
func (h *JobsHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	var (
		filename string
		size     int64
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "File is required")
			return
		}
		file.Close()
		filename, size = header.Filename, header.Size
	} else {
		var req struct {
			Filename string `json:"filename"`
			Size     int64  `json:"size"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		filename, size = req.Filename, req.Size
	}

	if strings.TrimSpace(filename) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Filename is required")
		return
	}

	h.enqueue(w, r, jobs.NewUploadFileJob(filename, size))
}

func (h *JobsHandler) enqueue(w http.ResponseWriter, r *http.Request, job jobs.Job) {
	ctx := r.Context()

	if err := h.publisher.Publish(ctx, job); err != nil {
		h.log.Error().Err(err).Str("job_type", string(job.GetType())).Msg("Failed to enqueue job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	jobID := job.GetID()
	h.log.Info().Str("job_id", jobID).Str("job_type", string(job.GetType())).Msg("Job enqueued")

	// Workers may already be mutating job; respond with the stored copy.
	stored, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
		return
	}
	middleware.WriteJSON(w, http.StatusAccepted, stored)
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Type:   jobs.JobType(query.Get("type")),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
