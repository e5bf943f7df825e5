package ingest

import (
	"context"
	"time"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

// ProcessDocumentIngestion runs one ingestion job against the stored document.
// A job whose generation is no longer the document's current one was superseded by a re-upload and is skipped.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, store docModel.DocumentStore, p *Pipeline) (jobModel.Job, error) {
	logger := logger_i.FromContext(ctx, "Document Ingestion").With("jobId", job.Id, "documentId", job.DocumentId)

	job.CurrentStep = jobModel.DocumentLoad
	doc, found, err := store.GetDocument(ctx, job.DocumentId)
	if err != nil {
		logger.Error("Error loading document", "error", err)
		return job, ragError.Wrap(ragError.TransientFailure, "ingest.load", err)
	}
	if !found {
		return job, ragError.New(ragError.NotFound, "ingest.load", "document no longer exists")
	}
	if doc.Generation != job.JobPayload.Generation {
		logger.Info("Job superseded by a newer upload", "jobGeneration", job.JobPayload.Generation, "current", doc.Generation)
		job.Status = jobModel.JobStatusComplete
		job.CurrentStep = jobModel.Complete
		job.EndTime = time.Now()
		return job, nil
	}

	job.CurrentStep = jobModel.IngestProcessing
	count, err := p.Ingest(ctx, Request{
		DocumentId: doc.Id,
		RawText:    doc.RawText,
		Owner:      doc.Owner,
		IsPublic:   doc.IsPublic(),
		Generation: doc.Generation,
	})
	if err != nil {
		return job, err
	}

	// a delete that raced with this job must not leave orphaned vectors behind
	if _, stillThere, err := store.GetDocument(ctx, doc.Id); err == nil && !stillThere {
		logger.Warn("Document deleted during ingestion, removing its vectors")
		if err := p.index.DeleteByOwner(ctx, doc.Id); err != nil {
			logger.Error("Cleanup after concurrent delete failed", "error", err)
		}
		return job, ragError.New(ragError.NotFound, "ingest.commit", "document deleted during ingestion")
	}

	job.JobPayload.ChunkCount = count
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	job.EndTime = time.Now()
	logger.Debug("Processing document complete", "chunks", count)
	return job, nil
}
