package ingest

import (
	"context"
	"fmt"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/internal/rag/chunker"
	"github.com/akolanti/alexandria/internal/rag/embedding"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// namespace for deterministic point ids
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("alexandria/chunks"))

type Request struct {
	DocumentId string
	RawText    string
	Owner      string
	IsPublic   bool
	// Generation tags every point written by this call. Points of older generations are removed afterwards.
	Generation string
}

type Pipeline struct {
	embedder  embedding.Embedder
	index     vectorDB.Index
	splitter  *chunker.Splitter
	batchSize int
	parallel  int
}

func NewPipeline(e embedding.Embedder, idx vectorDB.Index, chunkSize, overlap int) (*Pipeline, error) {
	splitter, err := chunker.New(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		embedder:  e,
		index:     idx,
		splitter:  splitter,
		batchSize: config.EmbeddingBatchSize,
		parallel:  config.EmbeddingParallelBatches,
	}, nil
}

// WithBatching overrides the sub-batch size and fan-out.
func (p *Pipeline) WithBatching(batchSize, parallel int) *Pipeline {
	p.batchSize = max(batchSize, 1)
	p.parallel = max(parallel, 1)
	return p
}

// PrepareChunks splits raw text the same way Ingest does, tagged with documentId.
func (p *Pipeline) PrepareChunks(documentId, rawText string) []docModel.Chunk {
	chunks := p.splitter.Split(rawText)
	for i := range chunks {
		chunks[i].DocumentId = documentId
	}
	return chunks
}

// Ingest chunks, embeds and indexes one document and returns the chunk count.
// Nothing is written unless every chunk was embedded, so a failed call leaves the index as it was.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (int, error) {
	log := logger_i.FromContext(ctx, "ingest").With("documentId", req.DocumentId, "generation", req.Generation)

	if req.DocumentId == "" || req.Generation == "" {
		return 0, ragError.New(ragError.ValidationFailure, "ingest.Ingest", "document id and generation are required")
	}
	if err := vectorDB.CheckDimension(ctx, p.index, p.embedder.Dimension()); err != nil {
		return 0, err
	}

	chunks := p.PrepareChunks(req.DocumentId, req.RawText)
	log.Debug("Prepared chunks", "count", len(chunks))

	vectors, err := p.embedAll(ctx, chunks, log)
	if err != nil {
		return 0, err
	}

	points := make([]vectorDB.Point, len(chunks))
	for i, c := range chunks {
		points[i] = vectorDB.Point{
			Id:         PointId(req.DocumentId, req.Generation, c.Ordinal),
			Vector:     vectors[i],
			DocumentId: req.DocumentId,
			Owner:      req.Owner,
			IsPublic:   req.IsPublic,
			Generation: req.Generation,
			Ordinal:    c.Ordinal,
			Text:       c.Text,
		}
	}

	// one upsert for the whole document
	if err := p.index.Upsert(ctx, points); err != nil {
		log.Error("upserting to vector index failed", "error", err)
		return 0, err
	}
	if err := p.index.DeleteStale(ctx, req.DocumentId, req.Generation); err != nil {
		log.Error("removing superseded chunks failed", "error", err)
		return 0, err
	}

	metrics.CountIngestedChunks(len(points))
	log.Info("Document indexed", "chunks", len(points))
	return len(points), nil
}

// embedAll embeds sub-batches in parallel. The first failure cancels the rest.
func (p *Pipeline) embedAll(ctx context.Context, chunks []docModel.Chunk, log *logger_i.Logger) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)

	for start := 0; start < len(chunks); start += p.batchSize {
		end := min(start+p.batchSize, len(chunks))
		batchNo := start / p.batchSize

		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Text)
			}

			done := metrics.MeasureDependency(metrics.DepEmbedding)
			batch, err := p.embedder.BatchEmbedding(gctx, texts)
			done()
			if err != nil {
				log.Error("embedding batch failed", "batch", batchNo, "error", err)
				return ragError.Wrap(ragError.PermanentFailure, "ingest.embed", fmt.Errorf("embedding batch %d failed: %w", batchNo, err))
			}
			if err := embedding.CheckBatch("ingest.embed", batch, len(texts), p.embedder.Dimension()); err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// PointId is stable for a (document, generation, ordinal) triple so retried jobs overwrite instead of duplicating.
func PointId(documentId, generation string, ordinal int) string {
	return uuid.NewSHA1(pointNamespace, []byte(fmt.Sprintf("%s/%s/%d", documentId, generation, ordinal))).String()
}
