package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
)

// Azure rejects embedding requests with more than 16 inputs.
const embeddingBatchSize = 16

type OpenAIService struct {
	client         *openai.Client
	model          string
	embeddingModel string
	logger         *slog.Logger
}

// NewOpenAIService talks to api.openai.com or any OpenAI compatible baseURL.
func NewOpenAIService(baseURL, apiKey, model, embeddingModel string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return newOpenAIService(config, model, embeddingModel)
}

// NewAzureOpenAIService talks to an Azure OpenAI resource. Deployments are
// expected to be named after their models.
func NewAzureOpenAIService(endpoint, apiKey, apiVersion, model, embeddingModel string) *OpenAIService {
	config := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}
	return newOpenAIService(config, model, embeddingModel)
}

func newOpenAIService(config openai.ClientConfig, model, embeddingModel string) *OpenAIService {
	return &OpenAIService{
		client:         openai.NewClientWithConfig(config),
		model:          model,
		embeddingModel: embeddingModel,
		logger:         logger.NewModuleLogger("service", "openai"),
	}
}

func (s *OpenAIService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %w", types.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", types.ErrUpstream, errors.New("no response generated"))
	}

	s.logger.Debug("chat completion done",
		"model", s.model,
		"tokens", resp.Usage.TotalTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(s.embeddingModel),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: embeddings: %w", types.ErrUpstream, err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", types.ErrUpstream, end-start, len(resp.Data))
		}
		batch := make([][]float32, end-start)
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(batch) {
				return nil, fmt.Errorf("%w: embedding index %d out of range", types.ErrUpstream, item.Index)
			}
			batch[item.Index] = item.Embedding
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
