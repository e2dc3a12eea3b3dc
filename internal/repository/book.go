package repository

import (
	"context"

	"bookshelf/internal/domain"
)

// BookRepository exposes persistence operations for catalogue entries.
// BookID is unique; violations surface as domain.ErrDuplicateKey.
type BookRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, book *domain.Book) (string, error)
	Replace(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id string) (*domain.Book, error)
	GetByAuthor(ctx context.Context, authorName string) (*domain.Book, error)
	List(ctx context.Context, page domain.Page) ([]domain.Book, error)
}
