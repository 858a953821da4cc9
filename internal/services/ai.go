package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrAIUnavailable is returned when the OpenAI integration is not configured.
	ErrAIUnavailable = errors.New("openai integration is not configured")
)

// Per-task sampling temperatures.
const (
	TempFlashcards      float32 = 0.5
	TempQuiz            float32 = 0.6
	TempAdaptive        float32 = 0.7
	TempRecommendations float32 = 0.6
)

// Generator is the narrow synchronous interface to the generative model. Each
// call is independent, has a bounded timeout and no retry; failures surface to
// the caller and never crash the action.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}

type AIService struct {
	client *openai.Client
	model  string
}

func NewAIService(apiKey string, model string, apiEndpoint string) *AIService {
	if apiKey == "" {
		return &AIService{}
	}

	cfg := openai.DefaultConfig(apiKey)
	if apiEndpoint != "" {
		cfg.BaseURL = apiEndpoint
	}

	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (s *AIService) disabled() bool {
	return s.client == nil || s.model == ""
}

func (s *AIService) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	if s.disabled() {
		return "", ErrAIUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("request openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
