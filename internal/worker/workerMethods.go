package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/cenkalti/backoff/v4"
)

// newBackOff paces whole-document retries.
var newBackOff = func() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 2 * time.Second
	expo.MaxElapsedTime = config.IngestRetryMaxElapsed
	return backoff.WithMaxRetries(expo, config.IngestMaxRetries)
}

func executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctx := logger_i.WithTrace(context.Background(), job.TraceId)
	log := logger.With("traceId", job.TraceId, "jobId", job.Id, "documentId", job.DocumentId)
	log.Debug("Processing job")

	job.Status = jobModel.JobStatusRunning
	saveJobState(ctx, job, log)

	switch job.JobType {
	case jobModel.JobTypeIngest:
		job = ingestDocument(ctx, job, log)
	default:
		log.Error("Unknown job type", "type", job.JobType)
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobModel.JobError{Code: 400, Kind: string(ragError.ValidationFailure), Message: "unknown job type"}
	}

	if job.EndTime.IsZero() {
		job.EndTime = time.Now()
	}
	saveJobState(ctx, job, log)
	log.Info("Job finished", "status", job.Status, "attempts", job.Attempts)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

// ingestDocument runs the ingestion, retrying the whole document while failures are retryable.
// Every attempt gets its own timeout. Attempts are idempotent since point ids are deterministic.
func ingestDocument(ctx context.Context, job jobModel.Job, log *logger_i.Logger) jobModel.Job {
	result := job
	operation := func() error {
		job.Attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, config.IngestJobTimeout)
		defer cancel()

		var err error
		result, err = _ragService.IngestDocument(attemptCtx, job)
		result.Attempts = job.Attempts
		if err == nil {
			return nil
		}
		if !ragError.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("Ingestion attempt failed, retrying", "attempt", job.Attempts, "wait", wait, "error", err)
		retrying := job
		retrying.Status = jobModel.JobStatusRunning
		retrying.CurrentStep = jobModel.IngestRetrying
		saveJobState(ctx, retrying, log)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(newBackOff(), ctx), notify); err != nil {
		log.Error("Ingestion failed", "attempts", job.Attempts, "kind", ragError.KindOf(err), "error", err)
		if result.Status != jobModel.JobStatusError {
			result.Status = jobModel.JobStatusError
			result.CurrentStep = jobModel.Error
			result.Error = jobModel.JobError{Code: ragError.HTTPStatus(err), Kind: string(ragError.KindOf(err)), Message: err.Error()}
		}
	}
	return result
}

func saveJobState(ctx context.Context, job jobModel.Job, log *logger_i.Logger) {
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to update job state", "err", err)
	}
}
