package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/tieubaoca/finsight-be/types"
)

// ConversationRepo keeps the question/answer log of each document.
type ConversationRepo interface {
	CreateConversation(ctx context.Context, documentID string) error
	GetHistory(ctx context.Context, documentID string) (string, error)
	AppendTurn(ctx context.Context, documentID, question, answer string) error
}

type memoryConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*types.Conversation
}

func NewMemoryConversationRepo() ConversationRepo {
	return &memoryConversationRepo{
		conversations: make(map[string]*types.Conversation),
	}
}

func (r *memoryConversationRepo) CreateConversation(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[documentID]; ok {
		return fmt.Errorf("conversation for %s already exists", documentID)
	}
	r.conversations[documentID] = &types.Conversation{DocumentID: documentID}
	return nil
}

func (r *memoryConversationRepo) GetHistory(ctx context.Context, documentID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[documentID]
	if !ok {
		return "", fmt.Errorf("conversation %s: %w", documentID, types.ErrNotFound)
	}
	return conv.History, nil
}

func (r *memoryConversationRepo) AppendTurn(ctx context.Context, documentID, question, answer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[documentID]
	if !ok {
		return fmt.Errorf("conversation %s: %w", documentID, types.ErrNotFound)
	}
	conv.History += fmt.Sprintf("Q: %s\nA: %s\n", question, answer)
	return nil
}
