package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Provider names accepted by LLM_PROVIDER and EMBEDDING_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Settings holds everything that differs between deployments.
// Tunables that never change per environment stay as constants.
type Settings struct {
	ListenAddr string
	LogLevel   string

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string

	RedisAddr     string
	RedisPassword string

	LLMProvider       string
	EmbeddingProvider string
	GoogleAPIKey      string
	OpenAIAPIKey      string
	OpenAIBaseURL     string

	SessionServiceURL string
	// AuthBypassEmail skips the session service and treats every caller as this identity.
	// Local development only.
	AuthBypassEmail string

	// MCPIdentity is the identity MCP tool calls act as.
	MCPIdentity string
}

// Load reads an optional .env file and then the process environment.
func Load() Settings {
	_ = godotenv.Load()

	return Settings{
		ListenAddr: envOrDefault("LISTEN_ADDR", ServerListenAddr),
		LogLevel:   strings.ToLower(envOrDefault("LOG_LEVEL", "debug")),

		QdrantHost:   envOrDefault("QDRANT_HOST", QdrantHost),
		QdrantPort:   envIntOrDefault("QDRANT_PORT", QdrantGrpcPort),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),

		RedisAddr:     envOrDefault("REDIS_ADDR", RedisAddr),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LLMProvider:       strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderGemini)),
		EmbeddingProvider: strings.ToLower(envOrDefault("EMBEDDING_PROVIDER", ProviderGemini)),
		GoogleAPIKey:      os.Getenv("GOOGLE_API_KEY"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),

		SessionServiceURL: strings.TrimRight(envOrDefault("SESSION_SERVICE_URL", "http://localhost:8080"), "/"),
		AuthBypassEmail:   os.Getenv("AUTH_BYPASS_EMAIL"),

		MCPIdentity: os.Getenv("MCP_IDENTITY"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
