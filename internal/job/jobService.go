package job

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

var logger = logger_i.NewLogger("JobService")

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
	}
}

// Enqueue records j as queued and hands it to the worker pool.
// If ctx ends while the buffer is full the record is dropped again, so status never reports a job no worker will see.
func (s *Service) Enqueue(ctx context.Context, j jobModel.Job) error {
	if err := s.JobStore.SaveJob(ctx, j); err != nil {
		return ragError.Wrap(ragError.TransientFailure, "job.Enqueue", err)
	}

	metrics.IncrementJobsInQueue()
	// blocks while the buffer is full so uploads slow down instead of piling up
	select {
	case s.JobChannel <- j:
	case <-ctx.Done():
		metrics.DecrementJobsInQueue()
		s.JobStore.DeleteJob(context.WithoutCancel(ctx), j.Id)
		return ragError.FromContext(ctx, "job.Enqueue")
	}

	// ingestion is embedding heavy so it always asks for another worker,
	// idle workers retire on their own
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	select {
	case s.DispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
		logger.Debug("Requested a worker", "requestCount", accurateCount)
	default:
		if accurateCount%config.RequestsPerNewWorkerCount == 0 {
			logger.Debug("Dispatcher busy", "requestCount", accurateCount)
		}
	}
	return nil
}
