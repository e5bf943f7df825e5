package mcpServer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/rag"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var ErrMissingRagService = errors.New("mcp server needs a rag service")

// Server exposes search and question answering as MCP tools. Every call acts as identity.
type Server struct {
	ragService rag.Service
	identity   string
	server     *mcp.Server
	logger     *logger_i.Logger
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"what to look for"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of documents to return (default 5, max 50)"`
}

type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

type SearchResultOutput struct {
	DocumentId  string   `json:"document_id"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description,omitempty"`
	Score       float32  `json:"score"`
}

type AskInput struct {
	DocumentId string `json:"document_id" jsonschema:"the document to ask about"`
	Question   string `json:"question" jsonschema:"the question to answer from the document"`
}

type AskOutput struct {
	Context string `json:"context"`
	Answer  string `json:"answer"`
}

func NewServer(ragService rag.Service, identity string) (*Server, error) {
	if ragService == nil {
		return nil, ErrMissingRagService
	}
	s := &Server{
		ragService: ragService,
		identity:   identity,
		server:     mcp.NewServer(&mcp.Implementation{Name: config.MCPServerName, Version: config.MCPServerVersion}, nil),
		logger:     logger_i.NewLogger("MCP"),
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Find the documents most relevant to a query",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answer a question from one document and return the context the answer was grounded in",
	}, s.handleAsk)
	return s, nil
}

// Handler serves the tools over streamable HTTP.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	topK := input.TopK
	if topK <= 0 {
		topK = config.SearchTopK
	}
	results, err := s.ragService.Search(ctx, input.Query, topK, s.identity)
	if err != nil {
		s.logger.Warn("search_documents failed", "error", err)
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Results: make([]SearchResultOutput, len(results)), Count: len(results)}
	for i, r := range results {
		output.Results[i] = SearchResultOutput{
			DocumentId:  r.Document.Id,
			Title:       r.Document.Title,
			Authors:     r.Document.Authors,
			Description: r.Document.Description,
			Score:       r.Score,
		}
	}
	return nil, output, nil
}

// handleAsk runs a full chat and collects the stream into one answer.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	var output AskOutput
	var answer strings.Builder
	var failure string

	err := s.ragService.Chat(ctx, rag.ChatRequest{
		DocumentId: input.DocumentId,
		Viewer:     s.identity,
		Turns:      []docModel.ChatTurn{{Role: docModel.RoleUser, Content: input.Question}},
	}, func(e docModel.AnswerEvent) error {
		switch e.Type {
		case docModel.EventContext:
			output.Context = e.Content
		case docModel.EventToken:
			answer.WriteString(e.Content)
		case docModel.EventError:
			failure = e.Content
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("ask_document failed", "documentId", input.DocumentId, "error", err)
		if failure != "" {
			return nil, AskOutput{}, errors.New(failure)
		}
		return nil, AskOutput{}, err
	}
	output.Answer = answer.String()
	return nil, output, nil
}
