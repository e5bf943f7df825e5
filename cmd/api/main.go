// @title           Alexandria Document Chat API
// @version         1.0
// @description     Upload documents, track their ingestion and chat with them over server-sent events.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/alexandria/internal/config"
	"github.com/akolanti/alexandria/internal/customHttpClient"
	"github.com/akolanti/alexandria/internal/data/redisStore"
	"github.com/akolanti/alexandria/internal/data/store"
	"github.com/akolanti/alexandria/internal/domain/docModel"
	"github.com/akolanti/alexandria/internal/domain/jobModel"
	"github.com/akolanti/alexandria/internal/handlers"
	"github.com/akolanti/alexandria/internal/job"
	"github.com/akolanti/alexandria/internal/mcpServer"
	"github.com/akolanti/alexandria/internal/middleware"
	"github.com/akolanti/alexandria/internal/rag"
	"github.com/akolanti/alexandria/internal/rag/answer"
	"github.com/akolanti/alexandria/internal/rag/embedding"
	"github.com/akolanti/alexandria/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/alexandria/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/alexandria/internal/rag/ingest"
	"github.com/akolanti/alexandria/internal/rag/llm"
	"github.com/akolanti/alexandria/internal/rag/llm/gemini"
	"github.com/akolanti/alexandria/internal/rag/llm/openaiLLM"
	"github.com/akolanti/alexandria/internal/rag/retrieve"
	"github.com/akolanti/alexandria/internal/rag/vectorDB"
	"github.com/akolanti/alexandria/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/alexandria/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/alexandria/internal/server"
	"github.com/akolanti/alexandria/internal/session"
	"github.com/akolanti/alexandria/internal/worker"
	"github.com/akolanti/alexandria/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	settings := config.Load()
	logger_i.Init(settings.LogLevel)
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//stores
	redisOptions := redisStore.Options{Addr: settings.RedisAddr, Password: settings.RedisPassword}
	jobStore, documentStore := initStores(serviceContext, redisOptions, logger)
	if jobStore == nil {
		logger.Error("Redis stores are offline and the in-memory fallback is disabled. Shutting down.")
		return
	}

	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	//external services
	embeddingService := initEmbedder(serviceContext, settings)
	llmProvider := initLLM(serviceContext, settings)
	if embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	vectorIndex := initIndex(serviceContext, settings, embeddingService.Dimension(), logger)
	if err := vectorDB.CheckDimension(serviceContext, vectorIndex, embeddingService.Dimension()); err != nil {
		logger.Error("Vector index does not match the embedding model. Shutting down.", "error", err)
		return
	}

	pipeline, err := ingest.NewPipeline(embeddingService, vectorIndex, config.ChunkSize, config.ChunkOverlap)
	if err != nil {
		logger.Error("Invalid chunking configuration", "error", err)
		return
	}
	retriever := retrieve.New(embeddingService, vectorIndex, documentStore)
	streamer := answer.NewStreamer(llmProvider, config.CompletionTimeout)

	ragService := rag.NewService(documentStore, vectorIndex, pipeline, retriever, streamer)

	handlers.InitJobHandler(service, ragService, documentStore)
	middleware.InitAuth(session.NewClient(settings.SessionServiceURL, settings.AuthBypassEmail))
	if settings.AuthBypassEmail != "" {
		logger.Info("Session lookup is bypassed", config.USER_EMAIL_KEY, settings.AuthBypassEmail)
	}

	var mcpHandler http.Handler
	if tools, err := mcpServer.NewServer(ragService, settings.MCPIdentity); err != nil {
		logger.Error("MCP server disabled", "error", err)
	} else {
		mcpHandler = tools.Handler()
	}

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, mcpHandler)

	<-stopExecution
	logger.Info("Server stopped")
}

// initStores prefers redis and falls back to process memory. Both results are nil when neither is allowed.
func initStores(ctx context.Context, opts redisStore.Options, logger *logger_i.Logger) (jobModel.JobStore, docModel.DocumentStore) {
	redisJobs := store.GetRedisJobStore(ctx, opts)
	redisDocuments := store.GetRedisDocumentStore(ctx, opts)
	if redisJobs != nil && redisDocuments != nil {
		return redisJobs, redisDocuments
	}

	logger.Error("Redis stores are offline")
	if !config.FALLBACK_TO_INTERNALSTORE {
		return nil, nil
	}
	logger.Info("Falling back to in-memory stores, documents will not survive a restart")
	return store.InitInMemoryJobStore(), store.InitInMemoryDocumentStore()
}

func initEmbedder(ctx context.Context, settings config.Settings) embedding.Embedder {
	switch settings.EmbeddingProvider {
	case config.ProviderOpenAI:
		return openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, settings.OpenAIAPIKey, settings.OpenAIBaseURL,
			customHttpClient.GetClient(config.EmbeddingCallTimeout))
	default:
		return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, settings.GoogleAPIKey)
	}
}

func initLLM(ctx context.Context, settings config.Settings) llm.Provider {
	switch settings.LLMProvider {
	case config.ProviderOpenAI:
		// streams are bounded by the completion context
		return openaiLLM.GetOpenAIClient(config.OpenAIChatModel, settings.OpenAIAPIKey, settings.OpenAIBaseURL, customHttpClient.GetClient(0))
	default:
		return gemini.GetGeminiClient(ctx, config.GeminiModelName, settings.GoogleAPIKey)
	}
}

// initIndex connects to Qdrant, or keeps vectors in memory when it is unreachable.
func initIndex(ctx context.Context, settings config.Settings, dimension int, logger *logger_i.Logger) vectorDB.Index {
	qdrantIndex := qdrantDB.GetQuadrantClient(ctx, qdrantDB.Options{
		Host:      settings.QdrantHost,
		Port:      settings.QdrantPort,
		APIKey:    settings.QdrantAPIKey,
		Dimension: dimension,
	})
	if qdrantIndex != nil {
		return qdrantIndex
	}
	logger.Error("Qdrant is offline, using the in-memory vector index")
	return memoryDB.New(dimension)
}
