package openaiLLM

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"sync"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/llm"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	api       openai.Client
	modelName string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

func GetOpenAIClient(modelName, apiKey, baseURL string, httpClient *http.Client) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		if apiKey == "" {
			logger.Error("OPENAI_API_KEY is not set")
			return
		}
		openaiClient = newClient(modelName, apiKey, baseURL, httpClient)
		logger.Info("OpenAI client created", "model", modelName)
	})

	if openaiClient == nil {
		return nil
	}
	return openaiClient
}

func newClient(modelName, apiKey, baseURL string, httpClient *http.Client) *llmClient {
	// retries never happen mid-stream
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &llmClient{api: openai.NewClient(opts...), modelName: modelName}
}

func (c *llmClient) Stream(ctx context.Context, prompt llm.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		log := logger_i.FromContext(ctx, "llm_openai")

		stream := c.api.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.modelName),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(prompt.System),
				openai.UserMessage(prompt.User),
			},
			Temperature: openai.Float(float64(config.ModelTemperature)),
		})
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			text := chunk.Choices[0].Delta.Content
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			log.Error("OpenAI stream failed", "error", err)
			yield("", classify("openai.Stream", err))
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
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ragError.FromHTTPStatus(op, apiErr.StatusCode, err)
	}
	return ragError.Wrap(ragError.StreamFailure, op, err)
}
