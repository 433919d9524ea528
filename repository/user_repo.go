package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tieubaoca/finsight-be/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
}

type memoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]*types.User
}

func NewMemoryUserRepo() UserRepo {
	return &memoryUserRepo{
		users: make(map[string]*types.User),
	}
}

func (r *memoryUserRepo) CreateUser(ctx context.Context, user *types.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	u := *user
	r.users[user.ID] = &u
	return nil
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id string) (*types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

type mongoUserRepo struct {
	collection *mongo.Collection
}

func NewMongoUserRepo(collection *mongo.Collection) UserRepo {
	return &mongoUserRepo{
		collection: collection,
	}
}

func (r *mongoUserRepo) CreateUser(ctx context.Context, user *types.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

func (r *mongoUserRepo) GetUser(ctx context.Context, id string) (*types.User, error) {
	var user types.User
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
