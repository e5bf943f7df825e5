package store

import (
	"context"
	"sync"

	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
)

type InMemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]docModel.Document
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{docs: make(map[string]docModel.Document)}
}

func (s *InMemoryDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	if doc.Id == "" {
		return ragError.New(ragError.ValidationFailure, "store.SaveDocument", "document id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.Id] = doc
	inMemLogger.Debug("Saved document to store", "documentId", doc.Id)
	return nil
}

func (s *InMemoryDocumentStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok, nil
}

func (s *InMemoryDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}

func (s *InMemoryDocumentStore) ListVisible(ctx context.Context, viewer string, ids []string) (map[string]docModel.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]docModel.Document, len(ids))
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok && doc.VisibleTo(viewer) {
			out[id] = doc
		}
	}
	return out, nil
}
