package qdrantDB

import (
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
	"github.com/qdrant/go-client/qdrant"
)

func toPointStruct(p vectorDB.Point) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		// Converts the deterministic UUID string to Qdrant's ID format
		Id:      qdrant.NewID(p.Id),
		Vectors: qdrant.NewVectors(p.Vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			fieldDocumentId: p.DocumentId,
			fieldOwner:      p.Owner,
			fieldIsPublic:   p.IsPublic,
			fieldGeneration: p.Generation,
			fieldOrdinal:    p.Ordinal,
			fieldContent:    p.Text,
		}),
	}
}

func toMatches(result []*qdrant.ScoredPoint) []docModel.RetrievalMatch {
	matches := make([]docModel.RetrievalMatch, 0, len(result))
	for _, hit := range result {
		matches = append(matches, docModel.RetrievalMatch{
			DocumentId: hit.Payload[fieldDocumentId].GetStringValue(),
			Ordinal:    int(hit.Payload[fieldOrdinal].GetIntegerValue()),
			Text:       hit.Payload[fieldContent].GetStringValue(),
			Score:      hit.Score,
		})
	}
	return matches
}

// scopeFilter restricts a query to one document, or to public documents plus the viewer's own.
func scopeFilter(scope docModel.Scope) *qdrant.Filter {
	if scope.Kind == docModel.ScopeWithin {
		return &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(fieldDocumentId, scope.DocumentId)},
		}
	}
	if scope.Viewer == "" {
		return &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatchBool(fieldIsPublic, true)},
		}
	}
	return &qdrant.Filter{
		Should: []*qdrant.Condition{
			qdrant.NewMatchBool(fieldIsPublic, true),
			qdrant.NewMatch(fieldOwner, scope.Viewer),
		},
	}
}

func staleFilter(documentId, keepGeneration string) *qdrant.Filter {
	return &qdrant.Filter{
		Must:    []*qdrant.Condition{qdrant.NewMatch(fieldDocumentId, documentId)},
		MustNot: []*qdrant.Condition{qdrant.NewMatch(fieldGeneration, keepGeneration)},
	}
}
