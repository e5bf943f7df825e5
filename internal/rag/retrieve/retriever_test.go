package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
	"github.com/akolanti/alexandria/internal/rag/vectorDB/memoryDB"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockEmbedder struct {
	dim   int
	calls int
	err   error
}

func (m *mockEmbedder) Dimension() int { return m.dim }
func (m *mockEmbedder) GetEmbedding(context.Context, string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []float32{1, 0}, nil
}
func (m *mockEmbedder) BatchEmbedding(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("not used")
}

type mockChunks struct {
	docs map[string]docModel.Document
}

func (m mockChunks) GetDocument(_ context.Context, id string) (docModel.Document, bool, error) {
	d, ok := m.docs[id]
	return d, ok, nil
}

// MockIndex wraps memoryDB and lets a test replace Query.
type MockIndex struct {
	*memoryDB.Index
	OnQuery func(ctx context.Context, v []float32, k int, s docModel.Scope) ([]docModel.RetrievalMatch, error)
}

func (m *MockIndex) Query(ctx context.Context, v []float32, k int, s docModel.Scope) ([]docModel.RetrievalMatch, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, v, k, s)
	}
	return m.Index.Query(ctx, v, k, s)
}

func doc42() docModel.Document {
	return docModel.Document{
		Id: "doc42",
		Chunks: []docModel.Chunk{
			{DocumentId: "doc42", Ordinal: 0, Text: "Plants capture light."},
			{DocumentId: "doc42", Ordinal: 1, Text: "Chlorophyll is green."},
			{DocumentId: "doc42", Ordinal: 2, Text: "Sugar is produced."},
		},
	}
}

func TestRetrieve_WithinFallsBackToStoredOrder(t *testing.T) {
	idx := &MockIndex{Index: memoryDB.New(2), OnQuery: func(context.Context, []float32, int, docModel.Scope) ([]docModel.RetrievalMatch, error) {
		return nil, nil
	}}
	r := New(&mockEmbedder{dim: 2}, idx, mockChunks{docs: map[string]docModel.Document{"doc42": doc42()}})

	got, err := r.Retrieve(context.Background(), "photosynthesis", 5, docModel.Within("doc42"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, doc42().Chunks[i].Text, m.Text)
		assert.Equal(t, i, m.Ordinal)
		assert.True(t, m.Degraded)
	}
}

func TestRetrieve_FallbackRespectsK(t *testing.T) {
	r := New(&mockEmbedder{dim: 2}, memoryDB.New(2), mockChunks{docs: map[string]docModel.Document{"doc42": doc42()}})

	got, err := r.Retrieve(context.Background(), "photosynthesis", 2, docModel.Within("doc42"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetrieve_CorpusNeverFallsBack(t *testing.T) {
	r := New(&mockEmbedder{dim: 2}, memoryDB.New(2), mockChunks{docs: map[string]docModel.Document{"doc42": doc42()}})

	got, err := r.Retrieve(context.Background(), "photosynthesis", 5, docModel.Corpus("a@b.c"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_RankedAndBounded(t *testing.T) {
	idx := memoryDB.New(2)
	require.NoError(t, idx.Upsert(context.Background(), []vectorDB.Point{
		{Id: "1", Vector: []float32{0, 1}, DocumentId: "doc42", Ordinal: 0, Text: "far"},
		{Id: "2", Vector: []float32{1, 0}, DocumentId: "doc42", Ordinal: 1, Text: "near"},
		{Id: "3", Vector: []float32{1, 1}, DocumentId: "doc42", Ordinal: 2, Text: "middle"},
	}))
	r := New(&mockEmbedder{dim: 2}, idx, nil)

	got, err := r.Retrieve(context.Background(), "q", 2, docModel.Within("doc42"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Text)
	assert.Equal(t, "middle", got[1].Text)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
	assert.False(t, got[0].Degraded)
}

func TestRetrieve_CapsOversizedIndexAnswer(t *testing.T) {
	idx := &MockIndex{Index: memoryDB.New(2), OnQuery: func(context.Context, []float32, int, docModel.Scope) ([]docModel.RetrievalMatch, error) {
		return []docModel.RetrievalMatch{{Score: 3}, {Score: 2}, {Score: 1}}, nil
	}}
	r := New(&mockEmbedder{dim: 2}, idx, nil)

	got, err := r.Retrieve(context.Background(), "q", 2, docModel.Corpus(""))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRetrieve_Errors(t *testing.T) {
	t.Run("dimension mismatch before embedding", func(t *testing.T) {
		e := &mockEmbedder{dim: 1536}
		_, err := New(e, memoryDB.New(2), nil).Retrieve(context.Background(), "q", 5, docModel.Corpus(""))
		assert.True(t, ragError.Is(err, ragError.InvalidConfiguration))
		assert.Equal(t, 0, e.calls)
	})
	t.Run("embedder failure surfaces", func(t *testing.T) {
		e := &mockEmbedder{dim: 2, err: ragError.New(ragError.TransientFailure, "embed", "timeout")}
		_, err := New(e, memoryDB.New(2), nil).Retrieve(context.Background(), "q", 5, docModel.Within("doc42"))
		assert.True(t, ragError.IsRetryable(err))
	})
	t.Run("index failure surfaces", func(t *testing.T) {
		idx := &MockIndex{Index: memoryDB.New(2), OnQuery: func(context.Context, []float32, int, docModel.Scope) ([]docModel.RetrievalMatch, error) {
			return nil, ragError.New(ragError.TransientFailure, "query", "unavailable")
		}}
		_, err := New(&mockEmbedder{dim: 2}, idx, nil).Retrieve(context.Background(), "q", 5, docModel.Within("doc42"))
		assert.True(t, ragError.Is(err, ragError.TransientFailure))
	})
}
