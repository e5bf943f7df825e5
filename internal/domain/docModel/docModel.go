package docModel

import (
	"context"
	"strings"
	"time"
)

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

type Document struct {
	Id          string     `json:"_id"`
	Owner       string     `json:"user_email"`
	Title       string     `json:"title"`
	Authors     []string   `json:"authors"`
	Description string     `json:"description,omitempty"`
	Categories  []string   `json:"categories"`
	Visibility  Visibility `json:"visibility"`
	FileName    string     `json:"fileName"`
	ContentType DocType    `json:"contentType"`
	RawText     string     `json:"raw_text"`
	Chunks      []Chunk    `json:"chunks"`
	// Generation changes on every re-upload. Index points carry it so stale ones can be removed.
	Generation  string    `json:"generation"`
	ChunkCount  int       `json:"chunk_count"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (d Document) IsPublic() bool {
	return d.Visibility == Public
}

// VisibleTo reports whether email may read the document.
func (d Document) VisibleTo(email string) bool {
	return d.IsPublic() || (email != "" && d.Owner == email)
}

// Header is the Title/Authors/Description block given to the llm.
func (d Document) Header() string {
	var sb strings.Builder
	sb.WriteString("Title: ")
	sb.WriteString(d.Title)
	sb.WriteString("\nAuthors: ")
	sb.WriteString(strings.Join(d.Authors, ", "))
	sb.WriteString("\nDescription: ")
	sb.WriteString(d.Description)
	return sb.String()
}

type Chunk struct {
	DocumentId string `json:"document_id"`
	Ordinal    int    `json:"ordinal"`
	Text       string `json:"text"`
	// Start is the rune offset of Text inside the document's raw text.
	Start int `json:"start"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LastUserTurn scans from the end and returns the newest user turn.
func LastUserTurn(turns []ChatTurn) (ChatTurn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i], true
		}
	}
	return ChatTurn{}, false
}

type ScopeKind int

const (
	ScopeWithin ScopeKind = iota
	ScopeCorpus
)

// Scope restricts retrieval to one document or to the documents a caller may see.
type Scope struct {
	Kind       ScopeKind
	DocumentId string
	// Viewer is the caller identity for corpus scope: public documents plus the ones Viewer owns.
	Viewer string
}

func Within(documentId string) Scope {
	return Scope{Kind: ScopeWithin, DocumentId: documentId}
}

func Corpus(viewer string) Scope {
	return Scope{Kind: ScopeCorpus, Viewer: viewer}
}

type RetrievalMatch struct {
	DocumentId string  `json:"document_id"`
	Ordinal    int     `json:"ordinal"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
	// Degraded is set on stored-order fallback results. Those carry no similarity score.
	Degraded bool `json:"degraded,omitempty"`
}

type EventType string

const (
	EventContext EventType = "context"
	EventToken   EventType = "token"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

type AnswerEvent struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
}

func (e AnswerEvent) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

// DocumentStore is the system of record for document metadata, raw text and chunk lists.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, id string) (Document, bool, error)
	DeleteDocument(ctx context.Context, id string) error
	ListVisible(ctx context.Context, viewer string, ids []string) (map[string]Document, error)
}
