package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/orchestra-ai/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	job := jobs.NewUploadFileJob("statement.pdf", 10)
	assert.Error(t, s.SaveJob(ctx, job), "job without id is rejected")

	job.JobID = "j1"
	job.Status = jobs.JobStatusPending
	require.NoError(t, s.SaveJob(ctx, job))

	// later changes to the caller's copy are not visible
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, got.GetStatus())
	assert.Nil(t, got.Base().StartedAt)
	assert.Equal(t, jobs.JobTypeUploadFile, got.GetType())

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
}

func TestStoreListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d"} {
		var job jobs.Job
		if i%2 == 0 {
			job = jobs.NewSyncIntegrationJob("Silicon Valley Bank")
		} else {
			job = jobs.NewUploadFileJob("f.csv", 1)
		}
		meta := job.Base()
		meta.JobID = id
		meta.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		meta.Status = jobs.JobStatusCompleted
		if id == "d" {
			meta.Status = jobs.JobStatusFailed
		}
		require.NoError(t, s.SaveJob(ctx, job))
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "d", all[0].GetID(), "newest first")
	assert.Equal(t, "a", all[3].GetID())

	syncs, err := s.ListJobs(ctx, jobs.JobFilter{Type: jobs.JobTypeSyncIntegration})
	require.NoError(t, err)
	assert.Len(t, syncs, 2)

	failed, err := s.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "d", failed[0].GetID())

	page, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].GetID())

	empty, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreUpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	job := jobs.NewSyncIntegrationJob("Brex Cards")
	job.JobID = "j1"
	require.NoError(t, s.SaveJob(ctx, job))

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "card network down"))
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.GetStatus())
	assert.Equal(t, "card network down", got.Base().Error)

	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""), jobs.ErrJobNotFound)
}
