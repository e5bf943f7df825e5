package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/akolanti/alexandria/internal/adapter"
	"github.com/akolanti/alexandria/internal/adapter/utils"
	"github.com/akolanti/alexandria/internal/api"
	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/rag"
	"github.com/akolanti/alexandria/internal/session"
)

const sseDone = "[DONE]"

// ChatWithDocumentHandler godoc
// @Summary      Chat with one document
// @Description  Streams server-sent events: one context frame, token frames, then `data: [DONE]`. A failure ends the stream with an error frame.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Param        documentId  path  string           true  "Document ID"
// @Param        request     body  api.ChatRequest  true  "Conversation turns, the last user turn is answered"
// @Success      200  {object}  api.SSEvent
// @Failure      400  {object}  api.JobResponse "No user message"
// @Failure      404  {object}  api.JobResponse "Document not found"
// @Router       /chat_with_pdf/{documentId} [post]
func ChatWithDocumentHandler(w http.ResponseWriter, r *http.Request) {
	chat(w, r, utils.GetChiURLParam(r, "documentId"))
}

// ChatHandler godoc
// @Summary      Chat with every visible document
// @Description  Same stream as chat_with_pdf, grounded in public documents and the caller's own.
// @Tags         Chat
// @Accept       json
// @Produce      text/event-stream
// @Param        request  body  api.ChatRequest  true  "Conversation turns"
// @Success      200  {object}  api.SSEvent
// @Failure      400  {object}  api.JobResponse "No user message"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, r *http.Request) {
	chat(w, r, "")
}

func chat(w http.ResponseWriter, r *http.Request, documentId string) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.ChatRequest
	if err := decodeJSON(r, &requestData); err != nil {
		writeError(w, r, documentId, err)
		return
	}

	stream := newEventStream(w)
	err := handlerInstance.ragService.Chat(r.Context(), rag.ChatRequest{
		DocumentId: documentId,
		Viewer:     session.Email(r.Context()),
		Turns:      adapter.ToChatTurns(requestData.Messages),
	}, stream.emit)

	if err != nil && !stream.started {
		writeError(w, r, documentId, err)
	}
}

// eventStream writes answer events as SSE frames. Headers go out with the first frame
// so failures before it can still be answered with a JSON error.
type eventStream struct {
	w          http.ResponseWriter
	controller *http.ResponseController
	started    bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	return &eventStream{
		w:          w,
		controller: http.NewResponseController(w),
	}
}

func (s *eventStream) start() {
	if s.started {
		return
	}
	s.started = true
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.w.WriteHeader(http.StatusOK)
}

// emit sends one frame. The done event is sent as the [DONE] sentinel.
func (s *eventStream) emit(e docModel.AnswerEvent) error {
	s.start()
	if e.Type == docModel.EventDone {
		return s.write(sseDone)
	}
	payload, err := json.Marshal(adapter.ToSSEvent(e))
	if err != nil {
		return err
	}
	return s.write(string(payload))
}

func (s *eventStream) write(data string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.controller.Flush()
}

// SearchDocumentsHandler godoc
// @Summary      Search documents
// @Description  Ranks public documents and the caller's own by their best matching chunk.
// @Tags         Search
// @Accept       json
// @Produce      json
// @Param        request  body  api.SearchRequest  true  "Query and top_k (default 5, max 50)"
// @Success      200  {array}   api.SearchResult
// @Failure      400  {object}  api.JobResponse
// @Router       /search_documents [post]
func SearchDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var requestData api.SearchRequest
	if err := decodeJSON(r, &requestData); err != nil {
		writeError(w, r, "", err)
		return
	}
	topK := requestData.TopK
	if topK == 0 {
		topK = config.SearchTopK
	}
	results, err := handlerInstance.ragService.Search(r.Context(), requestData.Query, topK, session.Email(r.Context()))
	if err != nil {
		writeError(w, r, "", err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSearchResults(results))
}
