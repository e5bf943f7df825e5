package openaiEmbedding

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/embedding"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api       openai.Client
	model     string
	dimension int
}

// GetOpenAIEmbeddingClient returns the shared embedder. httpClient may be nil.
func GetOpenAIEmbeddingClient(modelName, apiKey, baseURL string, httpClient *http.Client) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		if apiKey == "" {
			logger.Error("OPENAI_API_KEY is not set")
			return
		}
		embeddingClient = newClient(modelName, apiKey, baseURL, httpClient, int(config.EmbeddingOutputDimensionality))
		logger.Info("OpenAI Embedding client created", "model", modelName)
	})

	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func newClient(modelName, apiKey, baseURL string, httpClient *http.Client, dimension int) *client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &client{
		api:       openai.NewClient(opts...),
		model:     modelName,
		dimension: dimension,
	}
}

func (c *client) Dimension() int {
	return c.dimension
}

func (c *client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.embed(ctx, "openaiEmbedding.GetEmbedding", []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.embed(ctx, "openaiEmbedding.BatchEmbedding", texts)
}

func (c *client) embed(ctx context.Context, op string, texts []string) ([][]float32, error) {
	log := logger_i.FromContext(ctx, "openai_embedding").With("batchSize", len(texts))

	ctx, cancel := context.WithTimeout(ctx, config.EmbeddingCallTimeout)
	defer cancel()

	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(c.dimension)),
	})
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, classify(op, err)
	}

	data := res.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, 0, len(data))
	for _, d := range data {
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		vectors = append(vectors, v)
	}
	if err := embedding.CheckBatch(op, vectors, len(texts), c.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}

func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ragError.Wrap(ragError.TransientFailure, op, err)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ragError.FromHTTPStatus(op, apiErr.StatusCode, err)
	}
	// no status means the request never got an answer
	return ragError.Wrap(ragError.TransientFailure, op, err)
}
