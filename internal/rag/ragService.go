package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/metrics"
	"github.com/akolanti/alexandria/internal/rag/answer"
	"github.com/akolanti/alexandria/internal/rag/assembler"
	"github.com/akolanti/alexandria/internal/rag/ingest"
	"github.com/akolanti/alexandria/internal/rag/retrieve"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

/*
The worker, the handlers and the MCP tools only see Service.
service holds the clients (index, embedder, llm) and stays private so
callers cannot reach around it, and tests swap the clients for mocks
through NewService.
*/

type Service interface {
	// Chat answers the newest user turn, streaming events through emit.
	// Errors returned before the first event mean nothing was sent.
	Chat(ctx context.Context, req ChatRequest, emit answer.Emitter) error
	Search(ctx context.Context, query string, topK int, viewer string) ([]SearchResult, error)
	PrepareChunks(documentId, rawText string) []docModel.Chunk
	IngestDocument(ctx context.Context, job jobModel.Job) (jobModel.Job, error)
	RemoveDocument(ctx context.Context, documentId string) error
}

type ChatRequest struct {
	// DocumentId scopes the chat to one document. Empty means the whole visible corpus.
	DocumentId string
	Viewer     string
	Turns      []docModel.ChatTurn
}

type SearchResult struct {
	Document docModel.Document
	Score    float32
}

type service struct {
	store     docModel.DocumentStore
	index     vectorDB.Index
	pipeline  *ingest.Pipeline
	retriever *retrieve.Retriever
	streamer  *answer.Streamer
	logger    *logger_i.Logger
}

func NewService(store docModel.DocumentStore, index vectorDB.Index, pipeline *ingest.Pipeline, retriever *retrieve.Retriever, streamer *answer.Streamer) Service {
	return &service{
		store:     store,
		index:     index,
		pipeline:  pipeline,
		retriever: retriever,
		streamer:  streamer,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Chat(ctx context.Context, req ChatRequest, emit answer.Emitter) error {
	log := s.logger.With("traceId", logger_i.TraceID(ctx), "documentId", req.DocumentId)

	turn, ok := docModel.LastUserTurn(req.Turns)
	if !ok || strings.TrimSpace(turn.Content) == "" {
		return ragError.New(ragError.ValidationFailure, "rag.Chat", "a non-empty user message is required")
	}

	scope, system, err := s.chatScope(ctx, req)
	if err != nil {
		return err
	}

	matches, err := s.executeRetrievalStep(ctx, turn.Content, config.ChatTopK, scope)
	if err != nil {
		return err
	}
	if scope.Kind == docModel.ScopeCorpus {
		// point payloads lag behind re-uploads and failed deletes, the store decides visibility
		if matches, err = s.visibleMatches(ctx, matches, req.Viewer); err != nil {
			return err
		}
	}

	contextText, err := assembler.Assemble(matches, config.ContextBudget)
	if err != nil {
		return err
	}
	log.Debug("context assembled", "matches", len(matches), "chars", len([]rune(contextText)))

	state, err := s.streamer.Run(ctx, answer.Input{Context: contextText, System: system, Question: turn.Content}, emit)
	log.Debug("chat finished", "state", state)
	return err
}

func (s *service) chatScope(ctx context.Context, req ChatRequest) (docModel.Scope, string, error) {
	if req.DocumentId == "" {
		return docModel.Corpus(req.Viewer), config.ModelContext, nil
	}
	doc, err := s.visibleDocument(ctx, req.DocumentId, req.Viewer)
	if err != nil {
		return docModel.Scope{}, "", err
	}
	return docModel.Within(doc.Id), fmt.Sprintf(config.DocumentContext, doc.Header()), nil
}

// visibleDocument hides documents the viewer may not read behind NotFound.
func (s *service) visibleDocument(ctx context.Context, id, viewer string) (docModel.Document, error) {
	doc, found, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return doc, err
	}
	if !found || !doc.VisibleTo(viewer) {
		return doc, ragError.New(ragError.NotFound, "rag.document", "document not found")
	}
	return doc, nil
}

func (s *service) Search(ctx context.Context, query string, topK int, viewer string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ragError.New(ragError.ValidationFailure, "rag.Search", "query is required")
	}
	if topK <= 0 {
		topK = config.SearchTopK
	}
	topK = min(topK, config.MaxSearchTopK)

	matches, err := s.executeRetrievalStep(ctx, query, topK*config.SearchOversample, docModel.Corpus(viewer))
	if err != nil {
		return nil, err
	}
	ranked := bestPerDocument(matches)

	ids := make([]string, len(ranked))
	for i, m := range ranked {
		ids[i] = m.DocumentId
	}
	docs, err := s.store.ListVisible(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, topK)
	for _, m := range ranked {
		doc, ok := docs[m.DocumentId]
		if !ok {
			continue
		}
		results = append(results, SearchResult{Document: doc, Score: m.Score})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

func (s *service) PrepareChunks(documentId, rawText string) []docModel.Chunk {
	return s.pipeline.PrepareChunks(documentId, rawText)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) (jobModel.Job, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Document_ingestion", time.Since(start)) }()

	j, err := ingest.ProcessDocumentIngestion(ctx, job, s.store, s.pipeline)
	if err != nil {
		return s.jobError(j, err), err
	}
	return j, nil
}

func (s *service) RemoveDocument(ctx context.Context, documentId string) error {
	return s.index.DeleteByOwner(ctx, documentId)
}
