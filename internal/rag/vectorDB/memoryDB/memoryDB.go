package memoryDB

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
)

// Index is a brute-force cosine index held in process memory.
// Used when Qdrant is unreachable and in tests.
type Index struct {
	mu        sync.RWMutex
	dimension int
	points    []vectorDB.Point
	byId      map[string]int
}

func New(dimension int) *Index {
	return &Index{dimension: dimension, byId: make(map[string]int)}
}

func (m *Index) EnsureCollection(context.Context) error {
	return nil
}

func (m *Index) Dimension(context.Context) (int, error) {
	return m.dimension, nil
}

// Upsert applies the whole batch under one lock so readers never see half of it.
func (m *Index) Upsert(_ context.Context, points []vectorDB.Point) error {
	for _, p := range points {
		if len(p.Vector) != m.dimension {
			return ragError.New(ragError.InvalidConfiguration, "memoryDB.Upsert",
				fmt.Sprintf("point %s has dimension %d, index expects %d", p.Id, len(p.Vector), m.dimension))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		if i, ok := m.byId[p.Id]; ok {
			m.points[i] = p
			continue
		}
		m.byId[p.Id] = len(m.points)
		m.points = append(m.points, p)
	}
	return nil
}

func (m *Index) DeleteByOwner(_ context.Context, documentId string) error {
	m.deleteWhere(func(p vectorDB.Point) bool { return p.DocumentId == documentId })
	return nil
}

func (m *Index) DeleteStale(_ context.Context, documentId, keepGeneration string) error {
	m.deleteWhere(func(p vectorDB.Point) bool {
		return p.DocumentId == documentId && p.Generation != keepGeneration
	})
	return nil
}

func (m *Index) deleteWhere(drop func(vectorDB.Point) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.points[:0]
	for _, p := range m.points {
		if !drop(p) {
			kept = append(kept, p)
		}
	}
	clear(m.points[len(kept):])
	m.points = kept

	m.byId = make(map[string]int, len(m.points))
	for i, p := range m.points {
		m.byId[p.Id] = i
	}
}

func (m *Index) Query(ctx context.Context, vector []float32, k int, scope docModel.Scope) ([]docModel.RetrievalMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, ragError.FromContext(ctx, "memoryDB.Query")
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	matches := make([]docModel.RetrievalMatch, 0)
	for _, p := range m.points {
		if !inScope(p, scope) {
			continue
		}
		matches = append(matches, docModel.RetrievalMatch{
			DocumentId: p.DocumentId,
			Ordinal:    p.Ordinal,
			Text:       p.Text,
			Score:      cosine(vector, p.Vector),
		})
	}
	m.mu.RUnlock()

	// stable keeps insertion order for equal scores
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// Len is the number of stored points.
func (m *Index) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

// Snapshot returns a copy of the stored points in insertion order.
func (m *Index) Snapshot() []vectorDB.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]vectorDB.Point(nil), m.points...)
}

func inScope(p vectorDB.Point, scope docModel.Scope) bool {
	if scope.Kind == docModel.ScopeWithin {
		return p.DocumentId == scope.DocumentId
	}
	return p.IsPublic || (scope.Viewer != "" && p.Owner == scope.Viewer)
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
