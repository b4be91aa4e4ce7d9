// Package simulator stands in for the external systems the dashboard talks
// to: bank, ERP and payment integrations, and statement uploads. Each job
// waits a fixed delay and then delivers a small synthetic batch.
package simulator

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/orchestra-ai/internal/domain"
	"github.com/dvloznov/orchestra-ai/internal/jobs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Default simulated latencies.
const (
	DefaultSyncDelay   = 2 * time.Second
	DefaultUploadDelay = 1500 * time.Millisecond
)

// Target is the session state the simulator writes to.
type Target interface {
	Integrations() []domain.IntegrationStatus
	BeginSync(name string) bool
	CompleteSync(name string, batch []domain.Transaction) ([]domain.Alert, bool)
	FailSync(name string) bool
	ImportTransactions(batch []domain.Transaction) []domain.Alert
}

// Handler executes simulated jobs against a Target.
type Handler struct {
	Target      Target
	SyncDelay   time.Duration
	UploadDelay time.Duration
	Now         func() time.Time
	Log         zerolog.Logger
}

// NewHandler creates a handler with the default delays.
func NewHandler(target Target, log zerolog.Logger) *Handler {
	return &Handler{
		Target:      target,
		SyncDelay:   DefaultSyncDelay,
		UploadDelay: DefaultUploadDelay,
		Now:         time.Now,
		Log:         log.With().Str("component", "simulator").Logger(),
	}
}

// Handle implements jobs.JobHandler.
func (h *Handler) Handle(ctx context.Context, job jobs.Job) error {
	switch j := job.(type) {
	case *jobs.SyncIntegrationJob:
		return h.sync(ctx, j)
	case *jobs.UploadFileJob:
		return h.upload(ctx, j)
	default:
		return jobs.Permanent(fmt.Errorf("Handle: unsupported job type %q", job.GetType()))
	}
}

func (h *Handler) sync(ctx context.Context, job *jobs.SyncIntegrationJob) error {
	log := h.Log.With().Str("job_id", job.JobID).Str("integration", job.Integration).Logger()

	if !h.known(job.Integration) {
		return jobs.Permanent(fmt.Errorf("sync: unknown integration %q", job.Integration))
	}
	h.Target.BeginSync(job.Integration)
	log.Info().Dur("delay", h.SyncDelay).Msg("Syncing integration")

	if err := wait(ctx, h.SyncDelay); err != nil {
		h.Target.FailSync(job.Integration)
		return fmt.Errorf("sync: %w", err)
	}

	batch := SyntheticBatch(h.Now())
	raised, ok := h.Target.CompleteSync(job.Integration, batch)
	if !ok {
		return jobs.Permanent(fmt.Errorf("sync: integration %q disappeared", job.Integration))
	}
	job.Imported = len(batch)
	log.Info().Int("imported", len(batch)).Int("alerts_raised", len(raised)).Msg("Sync delivered transactions")
	return nil
}

func (h *Handler) upload(ctx context.Context, job *jobs.UploadFileJob) error {
	log := h.Log.With().Str("job_id", job.JobID).Str("filename", job.Filename).Logger()
	log.Info().Dur("delay", h.UploadDelay).Int64("size", job.Size).Msg("Processing upload")

	if err := wait(ctx, h.UploadDelay); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	batch := SyntheticBatch(h.Now())
	raised := h.Target.ImportTransactions(batch)
	job.Imported = len(batch)
	log.Info().Int("imported", len(batch)).Int("alerts_raised", len(raised)).Msg("Upload imported transactions")
	return nil
}

func (h *Handler) known(name string) bool {
	for _, in := range h.Target.Integrations() {
		if in.Name == name {
			return true
		}
	}
	return false
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyntheticBatch is what every simulated sync or upload delivers: one
// retainer payment and one flagged infrastructure spike, dated now.
func SyntheticBatch(now time.Time) []domain.Transaction {
	date := civil.DateOf(now).String()
	risk := 65
	return []domain.Transaction{
		{
			ID:          "new_" + uuid.NewString(),
			Date:        date,
			Description: "New Client Retainer",
			Amount:      8500,
			Type:        domain.TransactionIncome,
			Category:    "Revenue",
			Status:      domain.StatusCompleted,
		},
		{
			ID:          "new_" + uuid.NewString(),
			Date:        date,
			Description: "Server Costs Spike",
			Amount:      -3200,
			Type:        domain.TransactionExpense,
			Category:    "Infrastructure",
			Status:      domain.StatusCompleted,
			RiskScore:   &risk,
			IsAnomaly:   true,
		},
	}
}
