package service

import (
	"context"
	"errors"
	"time"

	"github.com/tieubaoca/finsight-be/repository"
	"github.com/tieubaoca/finsight-be/types"
)

type UserService interface {
	FindOrCreate(ctx context.Context, user *types.User) (*types.User, error)
}

type userService struct {
	repo repository.UserRepo
}

func NewUserService(repo repository.UserRepo) UserService {
	return &userService{
		repo: repo,
	}
}

// FindOrCreate returns the stored user for user.ID, registering it first
// when the subject has not been seen before.
func (s *userService) FindOrCreate(ctx context.Context, user *types.User) (*types.User, error) {
	existing, err := s.repo.GetUser(ctx, user.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	user.CreatedAt = time.Now().Unix()
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
