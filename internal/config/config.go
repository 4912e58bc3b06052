package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Vector   VectorConfig
	Keys     APIKeys
	Ai       AIConfig
	Profile  ProfileConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

// VectorConfig selects and configures the vector index backend.
type VectorConfig struct {
	Backend         string // "chroma" or "pgvector"
	ChromaBaseURL   string
	ChromaAuthToken string
	ChunkSize       int
	ChunkOverlap    int
}

type APIKeys struct {
	Mistral     string
	Gemini      string
	HuggingFace string
	IngestTopic string // async knowledge ingestion topic
}

type AIConfig struct {
	EmbeddingProvider string // "huggingface", "gemini" or "ollama"
	EmbeddingModel    string
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "mistral", "ollama" or "huggingface"
	LLMModel          string
	VisionModel       string
}

// ProfileConfig points at the external user service used for prompt
// enrichment.
type ProfileConfig struct {
	BaseURL     string
	CacheTTLMin int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Vector: VectorConfig{
			Backend:         getEnv("VECTOR_BACKEND", "chroma"),
			ChromaBaseURL:   getEnv("CHROMA_BASE_URL", "http://localhost:8000"),
			ChromaAuthToken: getEnv("CHROMA_AUTH_TOKEN", ""),
			ChunkSize:       getEnvAsInt("CHUNK_SIZE", 800),
			ChunkOverlap:    getEnvAsInt("CHUNK_OVERLAP", 150),
		},
		Keys: APIKeys{
			Mistral:     getEnv("MISTRAL_API_KEY", ""),
			Gemini:      getEnv("GEMINI_API_KEY", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
			IngestTopic: getEnv("INGEST_KNOWLEDGE_TOPIC_NAME", "INGEST_KNOWLEDGE_DOCUMENT"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "huggingface"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "mistral"),
			LLMModel:          getEnv("LLM_MODEL", "mistral-small-latest"),
			VisionModel:       getEnv("VISION_MODEL", "pixtral-12b-2409"),
		},
		Profile: ProfileConfig{
			BaseURL:     getEnv("USER_SERVICE_BASE_URL", ""),
			CacheTTLMin: getEnvAsInt("PROFILE_CACHE_TTL_MIN", 5),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
