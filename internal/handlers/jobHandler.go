package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/alexandria/internal/adapter/utils"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/job"
	"github.com/akolanti/alexandria/internal/rag"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
)

type JobHandler struct {
	service    *job.Service
	ragService rag.Service
	documents  docModel.DocumentStore
}

func InitJobHandler(jobService *job.Service, ragService rag.Service, documents docModel.DocumentStore) {
	once.Do(func() {
		handlerInstance = newJobHandler(jobService, ragService, documents)
		logJH.Info("Starting job handler")
	})
}

func newJobHandler(jobService *job.Service, ragService rag.Service, documents docModel.DocumentStore) *JobHandler {
	return &JobHandler{service: jobService, ragService: ragService, documents: documents}
}

// CreateNewJob records and queues the ingestion of doc's current generation.
func CreateNewJob(ctx context.Context, doc docModel.Document) (jobModel.Job, error) {
	_job := jobModel.Job{
		Id:          utils.GetNewUUID(),
		DocumentId:  doc.Id,
		TraceId:     logger_i.TraceID(ctx),
		JobType:     jobModel.JobTypeIngest,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
		JobPayload: jobModel.JobPayload{
			Generation: doc.Generation,
			FileName:   doc.FileName,
		},
	}
	log := logJH.With("traceId", _job.TraceId, "jobId", _job.Id, "documentId", doc.Id)

	if err := handlerInstance.service.Enqueue(ctx, _job); err != nil {
		log.Error("Could not queue job", "error", err)
		return _job, err
	}
	log.Info("Created new job")
	return _job, nil
}

func GetJobStatus(ctx context.Context, id string) (result jobModel.Job, isFound bool) {
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctx, id)
	}
	return result, false
}
