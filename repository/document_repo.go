package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/tieubaoca/finsight-be/types"
)

// DocumentRepo holds indexed documents for the lifetime of the process.
type DocumentRepo interface {
	SaveDocument(ctx context.Context, doc *types.Document) error
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

type memoryDocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]*types.Document
}

func NewMemoryDocumentRepo() DocumentRepo {
	return &memoryDocumentRepo{
		docs: make(map[string]*types.Document),
	}
}

func (r *memoryDocumentRepo) SaveDocument(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return fmt.Errorf("document %s already exists", doc.ID)
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *memoryDocumentRepo) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, types.ErrNotFound)
	}
	return doc, nil
}

func (r *memoryDocumentRepo) DeleteDocument(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id)
	return nil
}
