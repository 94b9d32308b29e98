// Package job holds the scheduled jobs of the views module.
package job

import (
	"context"
	"time"

	"github.com/gaborage/go-bricks/logger"
	"github.com/gaborage/go-bricks/scheduler"
)

const archiveTimeout = time.Minute

// Archiver copies daily view buckets to durable storage.
type Archiver interface {
	Archive(ctx context.Context) (int, error)
}

// ArchiveJob runs the daily view archive.
type ArchiveJob struct {
	archiver Archiver
}

func NewArchiveJob(a Archiver) *ArchiveJob {
	return &ArchiveJob{archiver: a}
}

// Execute implements scheduler.Job
func (j *ArchiveJob) Execute(ctx scheduler.JobContext) error {
	return j.run(ctx.JobID(), ctx.Logger())
}

func (j *ArchiveJob) run(jobID string, log logger.Logger) error {
	runCtx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	written, err := j.archiver.Archive(runCtx)
	if err != nil {
		log.Error().Err(err).Str("jobID", jobID).Int("written", written).Msg("View archive failed")
		return err
	}

	log.Info().
		Str("jobID", jobID).
		Int("rows", written).
		Msg("Daily views archived")
	return nil
}
