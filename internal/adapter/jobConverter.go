package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/alexandria/internal/api"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/rag"
)

func ToInitJobResponse(job jobModel.Job) api.InitJobResponse {
	return api.InitJobResponse{
		Id:         job.Id,
		DocumentId: job.DocumentId,
		StatusURL:  fmt.Sprintf("status/%s", job.Id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Kind:    job.Error.Kind,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:         job.Id,
		DocumentId: job.DocumentId,
		StartTime:  job.CreatedTime,
		EndTime:    job.EndTime,
		Attempts:   job.Attempts,
		Error:      errorPtr,
		Result: api.Result{
			Status:     string(job.Status),
			Step:       string(job.CurrentStep),
			ChunkCount: job.JobPayload.ChunkCount,
		},
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id: id,
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

// ToDocument builds the stored document for an upload. Text, chunks and generation are filled in by the caller.
func ToDocument(id, owner, fileName string, meta api.DocumentMetadata) docModel.Document {
	visibility := docModel.Private
	if meta.IsPublic {
		visibility = docModel.Public
	}
	return docModel.Document{
		Id:          id,
		Owner:       owner,
		Title:       meta.Title,
		Authors:     meta.Authors,
		Description: meta.Description,
		Categories:  meta.Categories,
		Visibility:  visibility,
		FileName:    fileName,
		LastUpdated: time.Now(),
	}
}

func ToChatTurns(messages []api.ChatMessage) []docModel.ChatTurn {
	turns := make([]docModel.ChatTurn, len(messages))
	for i, m := range messages {
		turns[i] = docModel.ChatTurn{Role: docModel.Role(m.Role), Content: m.Content}
	}
	return turns
}

func ToSearchResults(results []rag.SearchResult) []api.SearchResult {
	out := make([]api.SearchResult, len(results))
	for i, r := range results {
		d := r.Document
		out[i] = api.SearchResult{
			Id:              d.Id,
			Title:           d.Title,
			Authors:         d.Authors,
			Description:     d.Description,
			Categories:      d.Categories,
			FileName:        d.FileName,
			IsPublic:        d.IsPublic(),
			UserEmail:       d.Owner,
			LastUpdated:     d.LastUpdated,
			SimilarityScore: r.Score,
		}
	}
	return out
}

func ToSSEvent(e docModel.AnswerEvent) api.SSEvent {
	return api.SSEvent{Type: string(e.Type), Content: e.Content}
}
