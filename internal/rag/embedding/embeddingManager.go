package embedding

import (
	"context"
	"fmt"

	"github.com/akolanti/alexandria/internal/domain/ragError"
)

// Embedder maps text into one fixed embedding space.
// BatchEmbedding preserves input order and returns exactly one vector per text.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// CheckBatch verifies a provider answered with one vector of the expected size per input.
func CheckBatch(op string, vectors [][]float32, want, dimension int) error {
	if len(vectors) != want {
		return ragError.New(ragError.PermanentFailure, op,
			fmt.Sprintf("embedding provider returned %d vectors for %d inputs", len(vectors), want))
	}
	for i, v := range vectors {
		if len(v) != dimension {
			return ragError.New(ragError.InvalidConfiguration, op,
				fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), dimension))
		}
	}
	return nil
}
