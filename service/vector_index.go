package service

import (
	"context"

	"github.com/tieubaoca/finsight-be/types"
)

// VectorIndex stores segment vectors per document and answers nearest
// neighbour queries scoped to one document.
type VectorIndex interface {
	Upsert(ctx context.Context, documentID string, segments []types.Segment, vectors [][]float32) error
	Search(ctx context.Context, documentID string, vector []float32, limit int) ([]types.Segment, error)
	Delete(ctx context.Context, documentID string) error
}
