package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeSyncIntegration refreshes one connected integration.
	JobTypeSyncIntegration JobType = "sync_integration"
	// JobTypeUploadFile ingests an uploaded statement file.
	JobTypeUploadFile JobType = "upload_file"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ErrJobNotFound is returned by a JobStore for an unknown id.
var ErrJobNotFound = errors.New("job not found")

// Meta is the bookkeeping shared by every job type.
type Meta struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"jobId"`

	// Type is the job type.
	Type JobType `json:"type"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"createdAt"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"startedAt,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retryCount"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"maxRetries"`

	// Imported is how many transactions the job added to the snapshot.
	Imported int `json:"imported"`
}

// GetID implements the Job interface.
func (m *Meta) GetID() string {
	return m.JobID
}

// GetType implements the Job interface.
func (m *Meta) GetType() JobType {
	return m.Type
}

// GetStatus implements the Job interface.
func (m *Meta) GetStatus() JobStatus {
	return m.Status
}

// Base implements the Job interface.
func (m *Meta) Base() *Meta {
	return m
}

func (m Meta) clone() Meta {
	if m.StartedAt != nil {
		t := *m.StartedAt
		m.StartedAt = &t
	}
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		m.CompletedAt = &t
	}
	return m
}

// SyncIntegrationJob refreshes a named integration and pulls new
// transactions from it.
type SyncIntegrationJob struct {
	Meta
	Integration string `json:"integration"`
}

// NewSyncIntegrationJob creates a pending sync job for integration.
func NewSyncIntegrationJob(integration string) *SyncIntegrationJob {
	return &SyncIntegrationJob{
		Meta:        Meta{Type: JobTypeSyncIntegration},
		Integration: integration,
	}
}

// Clone implements the Job interface.
func (j *SyncIntegrationJob) Clone() Job {
	c := *j
	c.Meta = j.Meta.clone()
	return &c
}

// UploadFileJob ingests a statement file uploaded by the user.
type UploadFileJob struct {
	Meta
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// NewUploadFileJob creates a pending upload job.
func NewUploadFileJob(filename string, size int64) *UploadFileJob {
	return &UploadFileJob{
		Meta:     Meta{Type: JobTypeUploadFile},
		Filename: filename,
		Size:     size,
	}
}

// Clone implements the Job interface.
func (j *UploadFileJob) Clone() Job {
	c := *j
	c.Meta = j.Meta.clone()
	return &c
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus

	// Base returns the mutable bookkeeping fields.
	Base() *Meta

	// Clone returns a deep copy of the job.
	Clone() Job
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// Publish enqueues a job for asynchronous processing.
	Publish(ctx context.Context, job Job) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the queue fails the job without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job Job) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (Job, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]Job, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Type filters jobs by type.
	Type JobType

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
