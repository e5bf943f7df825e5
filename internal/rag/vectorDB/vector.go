package vectorDB

import (
	"context"
	"fmt"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
)

// Point is one embedded chunk together with the payload retrieval filters on.
type Point struct {
	Id         string
	Vector     []float32
	DocumentId string
	Owner      string
	IsPublic   bool
	Generation string
	Ordinal    int
	Text       string
}

// Index is the vector store capability.
// Query returns at most k matches by descending score; fewer candidates is not an error.
// Writes are eventually visible to Query.
type Index interface {
	EnsureCollection(ctx context.Context) error
	// Dimension reports the vector size of the collection, 0 when it is not known yet.
	Dimension(ctx context.Context) (int, error)
	Upsert(ctx context.Context, points []Point) error
	DeleteByOwner(ctx context.Context, documentId string) error
	// DeleteStale removes every point of documentId whose generation is not keepGeneration.
	DeleteStale(ctx context.Context, documentId, keepGeneration string) error
	Query(ctx context.Context, vector []float32, k int, scope docModel.Scope) ([]docModel.RetrievalMatch, error)
}

// CheckDimension rejects an embedder whose vectors do not fit the index.
func CheckDimension(ctx context.Context, idx Index, embedderDimension int) error {
	dim, err := idx.Dimension(ctx)
	if err != nil {
		return err
	}
	if dim != 0 && dim != embedderDimension {
		return ragError.New(ragError.InvalidConfiguration, "vectorDB.CheckDimension",
			fmt.Sprintf("index holds %d-dimensional vectors but the embedder produces %d", dim, embedderDimension))
	}
	return nil
}
