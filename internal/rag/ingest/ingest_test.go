package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/vectorDB/memoryDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockEmbedder struct {
	dim       int
	calls     atomic.Int32
	batchFunc func(ctx context.Context, call int, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) Dimension() int { return m.dim }

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	v, err := m.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	call := int(m.calls.Add(1))
	if m.batchFunc != nil {
		return m.batchFunc(ctx, call, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)%7 + 1), 1}
	}
	return out, nil
}

type mockStore struct {
	mu   sync.Mutex
	docs map[string]docModel.Document
	// onGet runs after every lookup, it lets a test change the store between reads
	onGet func(call int)
	gets  int
}

func (s *mockStore) SaveDocument(_ context.Context, d docModel.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.Id] = d
	return nil
}

func (s *mockStore) GetDocument(_ context.Context, id string) (docModel.Document, bool, error) {
	s.mu.Lock()
	d, ok := s.docs[id]
	s.gets++
	call := s.gets
	s.mu.Unlock()
	if s.onGet != nil {
		s.onGet(call)
	}
	return d, ok, nil
}

func (s *mockStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *mockStore) ListVisible(context.Context, string, []string) (map[string]docModel.Document, error) {
	return nil, nil
}

// fiveParagraphs splits into exactly five chunks with size 100 / overlap 10.
func fiveParagraphs(tag string) string {
	paras := make([]string, 5)
	for i := range paras {
		paras[i] = fmt.Sprintf("%s%d ", tag, i) + strings.Repeat("leaf ", 15)
	}
	return strings.Join(paras, "\n\n")
}

func newPipeline(t *testing.T, e *mockEmbedder, idx *memoryDB.Index) *Pipeline {
	t.Helper()
	p, err := NewPipeline(e, idx, 100, 10)
	require.NoError(t, err)
	return p.WithBatching(1, 1)
}

// --- Unit Tests ---

func TestPrepareChunks(t *testing.T) {
	p := newPipeline(t, &mockEmbedder{dim: 2}, memoryDB.New(2))
	chunks := p.PrepareChunks("doc-1", fiveParagraphs("p"))

	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.Equal(t, "doc-1", c.DocumentId)
		assert.Equal(t, i, c.Ordinal)
	}
}

func TestIngest_IndexesEveryChunk(t *testing.T) {
	idx := memoryDB.New(2)
	e := &mockEmbedder{dim: 2}
	p := newPipeline(t, e, idx)

	count, err := p.Ingest(context.Background(), Request{DocumentId: "doc42", RawText: fiveParagraphs("p"), Owner: "a@b.c", Generation: "g1"})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 5, idx.Len())
	assert.Equal(t, int32(5), e.calls.Load())
}

func TestIngest_RateLimitedBatchCommitsNothing(t *testing.T) {
	idx := memoryDB.New(2)
	ctx := context.Background()

	_, err := newPipeline(t, &mockEmbedder{dim: 2}, idx).
		Ingest(ctx, Request{DocumentId: "doc42", RawText: fiveParagraphs("old"), Generation: "g1"})
	require.NoError(t, err)
	before := idx.Snapshot()

	failing := &mockEmbedder{dim: 2, batchFunc: func(ctx context.Context, call int, texts []string) ([][]float32, error) {
		if call == 2 {
			return nil, ragError.New(ragError.RateLimited, "embed", "quota exceeded")
		}
		return [][]float32{{1, 1}}, nil
	}}
	count, err := newPipeline(t, failing, idx).
		Ingest(ctx, Request{DocumentId: "doc42", RawText: fiveParagraphs("new"), Generation: "g2"})

	require.Error(t, err)
	assert.Equal(t, 0, count)
	assert.True(t, ragError.Is(err, ragError.RateLimited))
	assert.True(t, ragError.IsRetryable(err))
	assert.Equal(t, before, idx.Snapshot())
}

func TestIngest_ReuploadSupersedesOldChunks(t *testing.T) {
	idx := memoryDB.New(2)
	ctx := context.Background()
	p := newPipeline(t, &mockEmbedder{dim: 2}, idx)

	_, err := p.Ingest(ctx, Request{DocumentId: "doc42", RawText: fiveParagraphs("old"), Generation: "g1"})
	require.NoError(t, err)
	_, err = p.Ingest(ctx, Request{DocumentId: "doc42", RawText: "a single short replacement", Generation: "g2"})
	require.NoError(t, err)

	matches, err := idx.Query(ctx, []float32{1, 1}, 10, docModel.Within("doc42"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a single short replacement", matches[0].Text)
}

func TestIngest_RetryIsIdempotent(t *testing.T) {
	idx := memoryDB.New(2)
	ctx := context.Background()
	p := newPipeline(t, &mockEmbedder{dim: 2}, idx)
	req := Request{DocumentId: "doc42", RawText: fiveParagraphs("p"), Generation: "g1"}

	first, err := p.Ingest(ctx, req)
	require.NoError(t, err)
	snapshot := idx.Snapshot()

	second, err := p.Ingest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, idx.Snapshot())
}

func TestIngest_DimensionMismatch(t *testing.T) {
	e := &mockEmbedder{dim: 2}
	p := newPipeline(t, e, memoryDB.New(3))

	_, err := p.Ingest(context.Background(), Request{DocumentId: "d", RawText: "text", Generation: "g"})
	assert.True(t, ragError.Is(err, ragError.InvalidConfiguration))
	assert.Equal(t, int32(0), e.calls.Load())
}

func TestNewPipeline_InvalidWindow(t *testing.T) {
	_, err := NewPipeline(&mockEmbedder{dim: 2}, memoryDB.New(2), 100, 100)
	assert.True(t, ragError.Is(err, ragError.InvalidConfiguration))
}

func TestPointId(t *testing.T) {
	assert.Equal(t, PointId("d", "g", 1), PointId("d", "g", 1))
	assert.NotEqual(t, PointId("d", "g", 1), PointId("d", "g2", 1))
	assert.NotEqual(t, PointId("d", "g", 1), PointId("d", "g", 2))
}

func TestProcessDocumentIngestion(t *testing.T) {
	doc := docModel.Document{Id: "doc42", Owner: "a@b.c", Visibility: docModel.Public, RawText: fiveParagraphs("p"), Generation: "g2"}

	tests := []struct {
		name       string
		generation string
		deleteMid  bool
		wantKind   ragError.Kind
		wantChunks int
		wantPoints int
	}{
		{name: "current generation", generation: "g2", wantChunks: 5, wantPoints: 5},
		{name: "superseded job is skipped", generation: "g1", wantChunks: 0, wantPoints: 0},
		{name: "deleted while ingesting", generation: "g2", deleteMid: true, wantKind: ragError.NotFound, wantPoints: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{docs: map[string]docModel.Document{doc.Id: doc}}
			if tt.deleteMid {
				store.onGet = func(call int) {
					if call == 1 {
						_ = store.DeleteDocument(context.Background(), doc.Id)
					}
				}
			}
			idx := memoryDB.New(2)
			p := newPipeline(t, &mockEmbedder{dim: 2}, idx)

			job := jobModel.Job{Id: "job-1", DocumentId: doc.Id, JobPayload: jobModel.JobPayload{Generation: tt.generation}}
			got, err := ProcessDocumentIngestion(context.Background(), job, store, p)

			if tt.wantKind != "" {
				assert.True(t, ragError.Is(err, tt.wantKind), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, jobModel.JobStatusComplete, got.Status)
				assert.Equal(t, tt.wantChunks, got.JobPayload.ChunkCount)
			}
			assert.Equal(t, tt.wantPoints, idx.Len())
		})
	}
}
