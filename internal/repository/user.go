package repository

import (
	"context"

	"bookshelf/internal/domain"
)

// UserRepository defines persistence operations for User entities.
// Implementations enforce uniqueness of Username and report violations
// as domain.ErrDuplicateKey.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
