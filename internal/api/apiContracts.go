package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id         string            `json:"id" example:"4f1c2a7e-9a51-4a8e-a0a1-8c2f3b0d9e11"`
	DocumentId string            `json:"document_id,omitempty" example:"7b8e5c9d-1f2a-4b3c-8d4e-5f6a7b8c9d0e"`
	Result     Result            `json:"result"`
	Error      *JobOutgoingError `json:"error,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time,omitempty"`
	Attempts   int               `json:"attempts,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Kind    string `json:"kind,omitempty" example:"ValidationFailure"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status     string `json:"status"`
	Step       string `json:"step,omitempty"`
	ChunkCount int    `json:"chunk_count,omitempty"`
}

type InitJobResponse struct {
	Id         string `json:"id"`
	DocumentId string `json:"document_id"`
	StatusURL  string `json:"status_url"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Document deleted successfully"`
}

type SearchResult struct {
	Id              string    `json:"_id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Description     string    `json:"description,omitempty"`
	Categories      []string  `json:"categories"`
	FileName        string    `json:"fileName"`
	IsPublic        bool      `json:"isPublic"`
	UserEmail       string    `json:"user_email"`
	LastUpdated     time.Time `json:"lastUpdated"`
	SimilarityScore float32   `json:"similarity_score"`
}

// SSEvent is one frame of a chat stream, sent as `data: <json>`.
type SSEvent struct {
	Type    string `json:"type" example:"token"`
	Content string `json:"content"`
}

// requests---------------------

// DocumentMetadata is the `document` form field of an upload.
type DocumentMetadata struct {
	Title       string   `json:"title" validate:"required,max=300"`
	Authors     []string `json:"authors" validate:"required,min=1,dive,required"`
	Description string   `json:"description,omitempty" validate:"max=5000"`
	Categories  []string `json:"categories" validate:"dive,required"`
	IsPublic    bool     `json:"isPublic"`
}

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}
