package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"ai-trainer-be/internal/config"
	"ai-trainer-be/internal/controller"
	"ai-trainer-be/internal/pkg/logger"
	"ai-trainer-be/internal/service"
	"ai-trainer-be/pkg/ai/router"
	"ai-trainer-be/pkg/embedding"
	"ai-trainer-be/pkg/llm/factory"
	"ai-trainer-be/pkg/multimodal"
	"ai-trainer-be/pkg/profile"
	"ai-trainer-be/pkg/rag/generate"
	"ai-trainer-be/pkg/rag/grader"
	"ai-trainer-be/pkg/rag/pipeline"
	"ai-trainer-be/pkg/vectordb"
	"ai-trainer-be/pkg/vectordb/chroma"
	"ai-trainer-be/pkg/vectordb/pgvector"
	"ai-trainer-be/pkg/vectorstore"
	"ai-trainer-be/pkg/websearch"

	pktNats "ai-trainer-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Exposed for cmd/seed and diagnostics
	Store  *vectorstore.Store
	Logger logger.ILogger
}

// NewContainer wires the whole dependency graph. db may be nil when the
// chroma backend is selected.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Embedding Provider
	var embeddingProvider embedding.EmbeddingProvider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	case "gemini":
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.Gemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	default:
		embeddingProvider = embedding.NewHuggingFaceProvider(cfg.Keys.HuggingFace, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: HUGGINGFACE (%s)", cfg.Ai.EmbeddingModel)
	}

	// Redis (embedding cache)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis, embedding cache disabled: %v", err)
		rdb = nil
	}

	ragLogger := initPipelineLogger()
	gateway := embedding.NewGateway(embeddingProvider, rdb, ragLogger)

	// Vector Index Backend
	var index vectordb.Index
	if cfg.Vector.Backend == "pgvector" {
		if db == nil {
			log.Fatalf("[FATAL] pgvector backend requires a database connection")
		}
		index, err = pgvector.NewIndex(db)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize pgvector index: %v", err)
		}
		log.Printf("[INFO] Using Vector Backend: PGVECTOR")
	} else {
		index = chroma.NewClient(chroma.Config{
			BaseURL:   cfg.Vector.ChromaBaseURL,
			AuthToken: cfg.Vector.ChromaAuthToken,
		})
		log.Printf("[INFO] Using Vector Backend: CHROMA (%s)", cfg.Vector.ChromaBaseURL)
	}

	store := vectorstore.NewStore(index, gateway, ragLogger,
		vectorstore.WithChunking(cfg.Vector.ChunkSize, cfg.Vector.ChunkOverlap))

	// LLM Provider
	apiKey := cfg.Keys.Mistral
	baseURL := ""
	switch cfg.Ai.LLMProvider {
	case "huggingface":
		apiKey = cfg.Keys.HuggingFace
	case "ollama":
		baseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		baseURL,
		apiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// NATS (best-effort event bus)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// User Profile Enrichment
	var profileProvider profile.Provider
	if cfg.Profile.BaseURL != "" {
		ttl := time.Duration(cfg.Profile.CacheTTLMin) * time.Minute
		profileProvider = profile.NewCachedProvider(profile.NewHTTPProvider(cfg.Profile.BaseURL), ttl)
	}

	// RAG Pipeline
	docGrader := grader.NewGrader(llmProvider, ragLogger)
	searcher := websearch.NewDuckDuckGo()
	generator := generate.NewGenerator(llmProvider, profileProvider, ragLogger)
	ragPipeline := pipeline.NewPipeline(store, docGrader, searcher, generator, ragLogger)

	classifier := router.NewClassifier(llmProvider, ragLogger)

	var processor multimodal.Processor
	if cfg.Keys.Mistral != "" {
		processor = multimodal.NewMistralProcessor(cfg.Keys.Mistral, cfg.Ai.VisionModel, ragLogger)
	}

	// Services
	// The ingestion worker logs every document batch, so it gets its own
	// file instead of the console.
	ingestionLogger := logger.NewIsolatedLogger("logs/ingestion.log")
	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Keys.IngestTopic, store, natsPub, ingestionLogger)
	knowledgeService := service.NewKnowledgeService(store, publisherService, sysLogger)
	trainerService := service.NewTrainerService(ragPipeline, classifier, llmProvider, processor, natsPub)

	// Controllers
	chatController := controller.NewChatController(trainerService)
	knowledgeController := controller.NewKnowledgeController(knowledgeService)

	return &Container{
		ChatController:      chatController,
		KnowledgeController: knowledgeController,
		ConsumerService:     consumerService,
		Store:               store,
		Logger:              sysLogger,
	}
}

func initPipelineLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "rag_pipeline.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
