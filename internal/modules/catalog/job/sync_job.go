// Package job holds the scheduled jobs of the catalog module.
package job

import (
	"context"
	"time"

	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/scheduler"
)

const syncTimeout = 30 * time.Second

// Syncer refreshes the local catalog snapshot from the remote store.
type Syncer interface {
	Sync(ctx context.Context) error
}

// SyncJob replaces the catalog snapshot with the remote catalog on every run.
type SyncJob struct {
	syncer Syncer
}

func NewSyncJob(s Syncer) *SyncJob {
	return &SyncJob{syncer: s}
}

// Execute implements scheduler.Job
func (j *SyncJob) Execute(ctx scheduler.JobContext) error {
	return j.run(ctx.JobID(), ctx.Logger())
}

func (j *SyncJob) run(jobID string, log logger.Logger) error {
	runCtx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	started := time.Now()
	if err := j.syncer.Sync(runCtx); err != nil {
		log.Warn().Err(err).Str("jobID", jobID).Msg("Catalog sync failed, serving previous snapshot")
		return err
	}

	log.Info().
		Str("jobID", jobID).
		Str("elapsed", time.Since(started).String()).
		Msg("Catalog synced")
	return nil
}
