package googleEmbedding

import (
	"context"
	"sync"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/domain/ragError"
	"github.com/akolanti/alexandria/internal/rag/embedding"
	"github.com/akolanti/alexandria/pkg/logger_i"
	"google.golang.org/genai"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client
var dimension int32 = config.EmbeddingOutputDimensionality

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

type client struct {
	genAi *genai.Client
	model string
}

func newGoogleEmbedder(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Google Embedding client:", "error", err)
	}
	if c != nil {
		embeddingClient = &client{
			genAi: c,
			model: modelName,
		}
		logger.Debug("Google Embedding model name: " + modelName)
		logger.Info("Google Embedding client created")
		go closeClient(ctx, embeddingClient)
	}
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing Google Embedding client")
}

func GetGoogleEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("google_embedding")
		newGoogleEmbedder(ctx, modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{genAi: embeddingClient.genAi, model: embeddingClient.model}
}

func (c *client) Dimension() int {
	return int(dimension)
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger_i.FromContext(ctx, "google_embedding")

	res, err := c.doCall(ctx, genai.Text(query), taskQuery)
	if err != nil {
		log.Error("Error getting regular Embeddings from Google", "error", err)
		return nil, classify("googleEmbedding.GetEmbedding", err, log)
	}
	vectors := toVectors(res)
	if err := embedding.CheckBatch("googleEmbedding.GetEmbedding", vectors, 1, c.Dimension()); err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// BatchEmbedding embeds one sub-batch in a single EmbedContent call.
// Fan-out across sub-batches belongs to the caller.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger_i.FromContext(ctx, "batch_embedding").With("batchSize", len(chunks))
	if len(chunks) == 0 {
		return nil, nil
	}

	res, err := c.doCall(ctx, getContent(chunks), taskDocument)
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err)
		return nil, classify("googleEmbedding.BatchEmbedding", err, log)
	}
	vectors := toVectors(res)
	if err := embedding.CheckBatch("googleEmbedding.BatchEmbedding", vectors, len(chunks), c.Dimension()); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, content []*genai.Content, task string) (*genai.EmbedContentResponse, error) {
	if c.genAi == nil {
		return nil, ragError.New(ragError.InvalidConfiguration, "googleEmbedding", "client is closed")
	}
	ctx, cancel := context.WithTimeout(ctx, config.EmbeddingCallTimeout)
	defer cancel()
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: task})
	return result, err
}
