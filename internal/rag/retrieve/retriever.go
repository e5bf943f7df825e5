package retrieve

import (
	"context"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/internal/rag/embedding"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

// ChunkSource serves stored chunk lists for the degraded path.
type ChunkSource interface {
	GetDocument(ctx context.Context, id string) (docModel.Document, bool, error)
}

type Retriever struct {
	embedder embedding.Embedder
	index    vectorDB.Index
	chunks   ChunkSource
}

func New(e embedding.Embedder, idx vectorDB.Index, chunks ChunkSource) *Retriever {
	return &Retriever{embedder: e, index: idx, chunks: chunks}
}

// Retrieve returns at most k matches in the index's rank order.
// A within-document query the index has no matches for falls back to the document's stored chunks,
// in stored order, marked Degraded.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, scope docModel.Scope) ([]docModel.RetrievalMatch, error) {
	log := logger_i.FromContext(ctx, "retriever").With("scope", scopeName(scope), "k", k)
	if k <= 0 {
		return nil, nil
	}
	if err := vectorDB.CheckDimension(ctx, r.index, r.embedder.Dimension()); err != nil {
		return nil, err
	}

	done := metrics.MeasureDependency(metrics.DepEmbedding)
	vector, err := r.embedder.GetEmbedding(ctx, query)
	done()
	if err != nil {
		log.Error("query embedding failed", "error", err)
		return nil, err
	}

	matches, err := r.index.Query(ctx, vector, k, scope)
	if err != nil {
		log.Error("vector query failed", "error", err)
		return nil, err
	}
	if len(matches) > k {
		matches = matches[:k]
	}

	if len(matches) == 0 && scope.Kind == docModel.ScopeWithin {
		return r.storedOrder(ctx, scope.DocumentId, k, log)
	}
	log.Debug("retrieved", "matches", len(matches))
	return matches, nil
}

func (r *Retriever) storedOrder(ctx context.Context, documentId string, k int, log *logger_i.Logger) ([]docModel.RetrievalMatch, error) {
	if r.chunks == nil {
		return nil, nil
	}
	doc, found, err := r.chunks.GetDocument(ctx, documentId)
	if err != nil {
		return nil, ragError.Wrap(ragError.TransientFailure, "retrieve.storedOrder", err)
	}
	if !found {
		return nil, nil
	}

	n := min(k, len(doc.Chunks))
	matches := make([]docModel.RetrievalMatch, 0, n)
	for _, c := range doc.Chunks[:n] {
		matches = append(matches, docModel.RetrievalMatch{
			DocumentId: documentId,
			Ordinal:    c.Ordinal,
			Text:       c.Text,
			Degraded:   true,
		})
	}

	log.Warn("no vector matches, serving stored chunk order", "mode", "degraded", "documentId", documentId, "matches", len(matches))
	metrics.CountDegradedRetrieval()
	return matches, nil
}

func scopeName(s docModel.Scope) string {
	if s.Kind == docModel.ScopeWithin {
		return "within:" + s.DocumentId
	}
	return "corpus"
}
