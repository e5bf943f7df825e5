package rag

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
)

func (s *service) jobError(job jobModel.Job, err error) jobModel.Job {
	s.logger.Error("ingestion failed", "jobId", job.Id, "kind", ragError.KindOf(err), "error", err)

	job.Error = jobModel.JobError{
		Code:    ragError.HTTPStatus(err),
		Kind:    string(ragError.KindOf(err)),
		Message: errorMessage(err),
		Retry:   ragError.IsRetryable(err),
	}
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.EndTime = time.Now()
	return job
}

func errorMessage(err error) string {
	var e *ragError.Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal Server Error"
}

func (s *service) executeRetrievalStep(ctx context.Context, query string, k int, scope docModel.Scope) ([]docModel.RetrievalMatch, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("retrieval", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, query, k, scope)
}

// bestPerDocument keeps the first (best ranked) match of each document, in rank order.
func bestPerDocument(matches []docModel.RetrievalMatch) []docModel.RetrievalMatch {
	seen := make(map[string]bool, len(matches))
	out := make([]docModel.RetrievalMatch, 0, len(matches))
	for _, m := range matches {
		if seen[m.DocumentId] {
			continue
		}
		seen[m.DocumentId] = true
		out = append(out, m)
	}
	return out
}

// visibleMatches drops matches of documents the store no longer shows to viewer.
func (s *service) visibleMatches(ctx context.Context, matches []docModel.RetrievalMatch, viewer string) ([]docModel.RetrievalMatch, error) {
	if len(matches) == 0 {
		return matches, nil
	}
	ids := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if !seen[m.DocumentId] {
			seen[m.DocumentId] = true
			ids = append(ids, m.DocumentId)
		}
	}
	docs, err := s.store.ListVisible(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}
	kept := make([]docModel.RetrievalMatch, 0, len(matches))
	for _, m := range matches {
		if _, ok := docs[m.DocumentId]; ok {
			kept = append(kept, m)
		}
	}
	return kept, nil
}
