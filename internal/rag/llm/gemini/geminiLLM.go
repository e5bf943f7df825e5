package gemini

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/llm"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
	}
	if c != nil {
		geminiClient = &llmClient{client: c, modelName: modelName}
		logger.Debug("Gemini client created", "model", modelName)
		logger.Info("Gemini client created")
		go closeClient(ctx)
	}

}

func (c *llmClient) Stream(ctx context.Context, prompt llm.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		log := logger_i.FromContext(ctx, "llm_gemini")

		temperature := config.ModelTemperature
		contentConfig := &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{
					{Text: prompt.System},
				},
			},
			Temperature: &temperature,
		}

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.modelName, genai.Text(prompt.User), contentConfig) {
			if err != nil {
				log.Error("Gemini stream failed", "error", err)
				yield("", classify("gemini.Stream", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ragError.Wrap(ragError.TransientFailure, op, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return ragError.FromHTTPStatus(op, apiErr.Code, err)
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted:
			return ragError.Wrap(ragError.RateLimited, op, err)
		case codes.Unavailable, codes.DeadlineExceeded:
			return ragError.Wrap(ragError.TransientFailure, op, err)
		}
	}
	return ragError.Wrap(ragError.StreamFailure, op, err)
}

func closeClient(ctx context.Context) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
}
