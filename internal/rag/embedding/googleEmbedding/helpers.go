package googleEmbedding

import (
	"context"
	"errors"

	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// classify maps genai and grpc failures onto the retry taxonomy.
func classify(op string, err error, log *logger_i.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ragError.Wrap(ragError.TransientFailure, op, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 {
			log.Error("Rate limit hit! ", "error", err)
		}
		return ragError.FromHTTPStatus(op, apiErr.Code, err)
	}

	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			log.Error("Rate limit hit! ", "error", err)
			return ragError.Wrap(ragError.RateLimited, op, err)
		case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
			return ragError.Wrap(ragError.TransientFailure, op, err)
		}
	}
	return ragError.Wrap(ragError.PermanentFailure, op, err)
}

func toVectors(res *genai.EmbedContentResponse) [][]float32 {
	if res == nil {
		return nil
	}
	results := make([][]float32, 0, len(res.Embeddings))
	for _, r := range res.Embeddings {
		if r == nil {
			results = append(results, nil)
			continue
		}
		results = append(results, r.Values)
	}
	return results
}
