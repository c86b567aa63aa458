package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsight-ai/finsight/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultGenerationModel is the chat model used for answer synthesis
	DefaultGenerationModel = openai.GPT4oMini
	// DefaultMaxTokens bounds the length of a synthesized answer
	DefaultMaxTokens = 2048
	// DefaultTemperature keeps synthesis close to the grounding material
	DefaultTemperature = 0.1
)

// ErrEmptyPrompt is returned when the prompt is empty
var ErrEmptyPrompt = errors.New("prompt cannot be empty")

// CompletionAPI defines the interface for chat completion
type CompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator produces free text from a composed prompt. It is the
// generation collaborator of the tier router: a failure here is fatal for
// the query in progress.
type Generator struct {
	api         CompletionAPI
	model       string
	maxTokens   int
	temperature float32
}

// GeneratorConfig holds configuration for a Generator.
type GeneratorConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// NewGenerator creates a Generator using defaults.
func NewGenerator(apiKey string) *Generator {
	return NewGeneratorWithConfig(GeneratorConfig{APIKey: apiKey})
}

// NewGeneratorWithConfig creates a Generator with explicit configuration.
func NewGeneratorWithConfig(cfg GeneratorConfig) *Generator {
	model := cfg.Model
	if model == "" {
		model = DefaultGenerationModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return &Generator{
		api:         openai.NewClient(cfg.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Generate returns the model's completion for prompt. Errors are wrapped as
// GENERATION_FAILURE domain errors so callers can map them uniformly.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	resp, err := g.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "chat completion failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeGeneration, "chat completion returned no choices", fmt.Errorf("model %s", g.model))
	}

	return resp.Choices[0].Message.Content, nil
}
