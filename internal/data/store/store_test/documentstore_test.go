package store_test

import (
	"context"
	"testing"

	"github.com/akolanti/alexandria/internal/data/redisStore"
	"github.com/akolanti/alexandria/internal/data/store"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs() []docModel.Document {
	return []docModel.Document{
		{Id: "pub", Owner: "alice@example.com", Title: "Public paper", Visibility: docModel.Public, Generation: "g1",
			Chunks: []docModel.Chunk{{DocumentId: "pub", Ordinal: 0, Text: "hello"}}},
		{Id: "alice-private", Owner: "alice@example.com", Title: "Alice notes", Visibility: docModel.Private},
		{Id: "bob-private", Owner: "bob@example.com", Title: "Bob notes", Visibility: docModel.Private},
	}
}

func documentStores(t *testing.T) map[string]docModel.DocumentStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return map[string]docModel.DocumentStore{
		"redis":    store.TestDocumentStore(redisStore.NewTestStore(client)),
		"inmemory": store.InitInMemoryDocumentStore(),
	}
}

func TestDocumentStore_Lifecycle(t *testing.T) {
	for name, s := range documentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, d := range sampleDocs() {
				require.NoError(t, s.SaveDocument(ctx, d))
			}

			got, found, err := s.GetDocument(ctx, "pub")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, "Public paper", got.Title)
			require.Len(t, got.Chunks, 1)
			assert.Equal(t, "hello", got.Chunks[0].Text)

			_, found, err = s.GetDocument(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.DeleteDocument(ctx, "pub"))
			_, found, _ = s.GetDocument(ctx, "pub")
			assert.False(t, found)
		})
	}
}

func TestDocumentStore_ListVisible(t *testing.T) {
	for name, s := range documentStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, d := range sampleDocs() {
				require.NoError(t, s.SaveDocument(ctx, d))
			}
			ids := []string{"pub", "alice-private", "bob-private", "gone"}

			alice, err := s.ListVisible(ctx, "alice@example.com", ids)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"pub", "alice-private"}, keys(alice))

			anon, err := s.ListVisible(ctx, "", ids)
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"pub"}, keys(anon))

			empty, err := s.ListVisible(ctx, "bob@example.com", nil)
			require.NoError(t, err)
			assert.Empty(t, empty)
		})
	}
}

func TestDocumentStore_RejectsMissingId(t *testing.T) {
	for name, s := range documentStores(t) {
		t.Run(name, func(t *testing.T) {
			err := s.SaveDocument(context.Background(), docModel.Document{Title: "x"})
			assert.True(t, ragError.Is(err, ragError.ValidationFailure))
		})
	}
}

func keys(m map[string]docModel.Document) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
