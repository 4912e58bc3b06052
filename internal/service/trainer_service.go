package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"ai-trainer-be/internal/constant"
	"ai-trainer-be/internal/dto"
	"ai-trainer-be/pkg/ai/router"
	"ai-trainer-be/pkg/events"
	"ai-trainer-be/pkg/llm"
	"ai-trainer-be/pkg/multimodal"
	pktNats "ai-trainer-be/pkg/nats"
	"ai-trainer-be/pkg/rag/pipeline"
)

type ITrainerService interface {
	Chat(ctx context.Context, userID string, request *dto.ChatRequest) (*dto.ChatResponse, error)
}

// RAGPipeline is the retrieval loop the trainer service drives for fitness
// questions.
type RAGPipeline interface {
	Run(ctx context.Context, question, userID string, history []llm.Message) (*pipeline.PipelineState, error)
}

// QueryClassifier routes messages between the pipeline and the bypass path.
type QueryClassifier interface {
	Classify(ctx context.Context, message string) router.Category
}

type trainerService struct {
	ragPipeline    RAGPipeline
	classifier     QueryClassifier
	llmProvider    llm.LLMProvider
	processor      multimodal.Processor // optional
	eventPublisher *pktNats.Publisher   // optional
	ragLogger      *log.Logger
}

func NewTrainerService(
	ragPipeline RAGPipeline,
	classifier QueryClassifier,
	llmProvider llm.LLMProvider,
	processor multimodal.Processor,
	eventPublisher *pktNats.Publisher,
) ITrainerService {
	return &trainerService{
		ragPipeline:    ragPipeline,
		classifier:     classifier,
		llmProvider:    llmProvider,
		processor:      processor,
		eventPublisher: eventPublisher,
		ragLogger:      initRAGLogger(),
	}
}

func initRAGLogger() *log.Logger {
	logPath := filepath.Join(".", "logs", "trainer_rag.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[TRAINER-RAG] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}

func (ts *trainerService) Chat(ctx context.Context, userID string, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	ts.ragLogger.Printf("[CHAT] user=%s question=%q", userID, request.Message)

	conversationID := request.ConversationId
	if conversationID == "" {
		conversationID = fmt.Sprintf("%s%d", constant.ConversationIDPrefix, time.Now().UnixMilli())
	}

	category := ts.classifier.Classify(ctx, request.Message)
	ts.ragLogger.Printf("[CHAT] category=%s", category)

	var response *dto.ChatResponse
	var err error

	if category == router.CategoryGeneral {
		response, err = ts.generalChat(ctx, request.Message, conversationID)
	} else {
		response, err = ts.fitnessChat(ctx, userID, request, conversationID)
	}
	if err != nil {
		return nil, err
	}

	ts.publishChatCompleted(ctx, userID, conversationID, string(category), len(response.Sources))

	return response, nil
}

// generalChat bypasses retrieval entirely for small talk.
func (ts *trainerService) generalChat(ctx context.Context, message, conversationID string) (*dto.ChatResponse, error) {
	answer, err := ts.llmProvider.Generate(ctx, router.GeneralPrompt(message))
	if err != nil {
		return nil, fmt.Errorf("general chat failed: %w", err)
	}

	return &dto.ChatResponse{
		Response:        answer,
		Sources:         []dto.DocumentSource{},
		GeneratedImages: []string{},
		ConversationId:  conversationID,
	}, nil
}

func (ts *trainerService) fitnessChat(ctx context.Context, userID string, request *dto.ChatRequest, conversationID string) (*dto.ChatResponse, error) {
	question := request.Message

	// Image analysis enriches the question; a vision failure never blocks
	// the answer.
	if ts.processor != nil && len(request.Images) > 0 {
		analysis, err := ts.processor.AnalyzeExerciseForm(ctx, request.Images[0])
		if err != nil {
			ts.ragLogger.Printf("[CHAT] Image analysis failed: %v", err)
		} else {
			question += "\n\nUser Image Analysis: " + analysis
		}
	}

	history := toLLMMessages(request.ChatHistory)

	state, err := ts.ragPipeline.Run(ctx, question, userID, history)
	if err != nil {
		return nil, err
	}

	sources := make([]dto.DocumentSource, 0, len(state.Documents))
	for i, doc := range state.Documents {
		sources = append(sources, dto.DocumentSource{
			Content:  doc,
			Score:    i + 1,
			Metadata: map[string]interface{}{},
		})
	}

	return &dto.ChatResponse{
		Response:        state.Generation,
		Sources:         sources,
		GeneratedImages: []string{},
		ConversationId:  conversationID,
	}, nil
}

func (ts *trainerService) publishChatCompleted(ctx context.Context, userID, conversationID, category string, sourceCount int) {
	if ts.eventPublisher == nil {
		return
	}
	evt := events.NewChatCompletedEvent(userID, conversationID, category, sourceCount)
	if err := ts.eventPublisher.Publish(ctx, evt); err != nil {
		ts.ragLogger.Printf("[CHAT] Failed to publish completion event: %v", err)
	}
}

func toLLMMessages(history []dto.ChatMessage) []llm.Message {
	if len(history) == 0 {
		return nil
	}
	msgs := make([]llm.Message, 0, len(history))
	for _, h := range history {
		msgs = append(msgs, llm.Message{Role: h.Role, Content: h.Content})
	}
	return msgs
}
