package service

import (
	"context"
)

// LLM sends a single prompt to a hosted model and returns its text reply.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into vectors, one per input in the same order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// AIService is a hosted provider offering both completion and embeddings.
type AIService interface {
	LLM
	Embedder
}
