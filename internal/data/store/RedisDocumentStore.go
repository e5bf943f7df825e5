package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/data/redisStore"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

const docKeyPrefix = "doc:"

// RedisDocumentStore keeps one JSON document per key. Documents do not expire.
type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

// GetRedisDocumentStore returns nil when redis is not reachable.
func GetRedisDocumentStore(ctx context.Context, opts redisStore.Options) *RedisDocumentStore {
	s := redisStore.GetRedisStore(ctx, opts, config.RedisDocumentStore)
	if s == nil {
		return nil
	}
	return &RedisDocumentStore{store: s, logger: logger_i.NewLogger("DocumentStore")}
}

func TestDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{store: store, logger: logger_i.NewLogger("test redis")}
}

func (s *RedisDocumentStore) SaveDocument(ctx context.Context, doc docModel.Document) error {
	if doc.Id == "" {
		return ragError.New(ragError.ValidationFailure, "store.SaveDocument", "document id is required")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return ragError.Wrap(ragError.PermanentFailure, "store.SaveDocument", err)
	}
	if err = s.store.Set(ctx, docKeyPrefix+doc.Id, data, 0); err != nil {
		return ragError.Wrap(ragError.TransientFailure, "store.SaveDocument", err)
	}
	s.logger.Debug("saved document", "traceId", logger_i.TraceID(ctx), "documentId", doc.Id, "generation", doc.Generation)
	return nil
}

func (s *RedisDocumentStore) GetDocument(ctx context.Context, id string) (docModel.Document, bool, error) {
	var doc docModel.Document
	val, err := s.store.Get(ctx, docKeyPrefix+id)
	if s.store.IsNil(err) {
		return doc, false, nil
	} else if err != nil {
		return doc, false, ragError.Wrap(ragError.TransientFailure, "store.GetDocument", err)
	}
	if err = json.Unmarshal([]byte(val), &doc); err != nil {
		return doc, false, ragError.Wrap(ragError.PermanentFailure, "store.GetDocument", err)
	}
	return doc, true, nil
}

func (s *RedisDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	if err := s.store.Del(ctx, docKeyPrefix+id); err != nil {
		return ragError.Wrap(ragError.TransientFailure, "store.DeleteDocument", err)
	}
	s.logger.Debug("deleted document", "traceId", logger_i.TraceID(ctx), "documentId", id)
	return nil
}

// ListVisible loads the listed documents and keeps the ones viewer may read.
func (s *RedisDocumentStore) ListVisible(ctx context.Context, viewer string, ids []string) (map[string]docModel.Document, error) {
	out := make(map[string]docModel.Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKeyPrefix + id
	}
	vals, err := s.store.MGet(ctx, keys...)
	if err != nil {
		return nil, ragError.Wrap(ragError.TransientFailure, "store.ListVisible", err)
	}
	for i, val := range vals {
		if val == "" {
			continue
		}
		var doc docModel.Document
		if err := json.Unmarshal([]byte(val), &doc); err != nil {
			s.logger.Warn("skipping corrupt document", "documentId", ids[i], "error", err)
			continue
		}
		if doc.VisibleTo(viewer) {
			out[doc.Id] = doc
		}
	}
	return out, nil
}
