package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/finsight-be/logger"
	"github.com/tieubaoca/finsight-be/types"
	"google.golang.org/api/option"
)

type GeminiService struct {
	client         *genai.Client
	model          *genai.GenerativeModel
	embeddingModel *genai.EmbeddingModel
	logger         *slog.Logger
}

func NewGeminiService(ctx context.Context, apiKey, modelName, embeddingModelName string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("no API key provided")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:         client,
		model:          client.GenerativeModel(modelName),
		embeddingModel: client.EmbeddingModel(embeddingModelName),
		logger:         logger.NewModuleLogger("service", "gemini"),
	}, nil
}

func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %w", types.ErrUpstream, err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: %w", types.ErrUpstream, errors.New("no response generated"))
	}

	var content strings.Builder
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content.WriteString(string(text))
			}
		}
	}
	return content.String(), nil
}

func (s *GeminiService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batch := s.embeddingModel.NewBatch()
	for _, text := range texts {
		batch = batch.AddContent(genai.Text(text))
	}
	resp, err := s.embeddingModel.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: batch embed: %w", types.ErrUpstream, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", types.ErrUpstream, len(texts), len(resp.Embeddings))
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

func (s *GeminiService) Close() error {
	return s.client.Close()
}
