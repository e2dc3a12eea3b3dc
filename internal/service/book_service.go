package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

const (
	// DefaultPageSize is used when a listing does not ask for a size.
	DefaultPageSize = 10
	// MaxPageSize bounds a single listing.
	MaxPageSize = 100
)

// BookInput is the caller supplied part of a book. Numbers are kept in their
// textual form so their length can be checked before conversion.
type BookInput struct {
	BookName   string      `json:"bookName"`
	BookPrice  json.Number `json:"bookPrice"`
	BookID     json.Number `json:"bookId"`
	AuthorName string      `json:"authorName"`
	CreatedBy  string      `json:"createdBy"`
}

// Validate checks every field and reports all failures at once.
func (b BookInput) Validate() error {
	err := validation.ValidateStruct(&b,
		validation.Field(&b.BookName, validation.Required.Error("bookName is required")),
		validation.Field(&b.BookPrice,
			validation.Required.Error("bookPrice is required"),
			is.Float.Error("bookPrice must be a number"),
			validation.Length(3, 6).Error("bookPrice must be 3 to 6 characters long"),
		),
		validation.Field(&b.BookID,
			validation.Required.Error("bookId is required"),
			is.Int.Error("bookId must be an integer"),
			validation.Length(1, 3).Error("bookId must be 1 to 3 digits long"),
		),
		validation.Field(&b.AuthorName, validation.Required.Error("authorName is required")),
		validation.Field(&b.CreatedBy, validation.Required.Error("createdBy is required")),
	)
	return toValidationError(err, func(param string) any {
		switch param {
		case "bookName":
			return b.BookName
		case "bookPrice":
			return string(b.BookPrice)
		case "bookId":
			return string(b.BookID)
		case "authorName":
			return b.AuthorName
		}
		return b.CreatedBy
	})
}

func (b BookInput) toDomain() (*domain.Book, error) {
	price, err := strconv.ParseFloat(string(b.BookPrice), 64)
	if err != nil {
		return nil, fmt.Errorf("parse bookPrice: %w", err)
	}
	bookID, err := strconv.ParseInt(string(b.BookID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse bookId: %w", err)
	}
	return &domain.Book{
		BookName:   b.BookName,
		BookPrice:  price,
		BookID:     bookID,
		AuthorName: b.AuthorName,
		CreatedBy:  b.CreatedBy,
	}, nil
}

// BookService coordinates catalogue operations backed by a repository.
type BookService interface {
	Create(ctx context.Context, in BookInput) (*domain.Book, error)
	Replace(ctx context.Context, id string, in BookInput) (*domain.Book, error)
	Delete(ctx context.Context, id string) (*domain.Book, error)
	FindByAuthor(ctx context.Context, authorName string) (*domain.Book, error)
	List(ctx context.Context, page domain.Page) ([]domain.Book, error)
}

type bookService struct {
	books repository.BookRepository
	now   func() time.Time
}

func NewBookService(books repository.BookRepository) BookService {
	return &bookService{
		books: books,
		now:   time.Now,
	}
}

func (s *bookService) Create(ctx context.Context, in BookInput) (*domain.Book, error) {
	book, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	book.CreatedAt = s.now().UTC()

	// bookId uniqueness is left to the store's unique index
	if _, err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *bookService) Replace(ctx context.Context, id string, in BookInput) (*domain.Book, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrNotFound
	}
	book, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	book.ID = id

	if err := s.books.Replace(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *bookService) Delete(ctx context.Context, id string) (*domain.Book, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrNotFound
	}
	return s.books.Delete(ctx, id)
}

func (s *bookService) FindByAuthor(ctx context.Context, authorName string) (*domain.Book, error) {
	return s.books.GetByAuthor(ctx, authorName)
}

func (s *bookService) List(ctx context.Context, page domain.Page) ([]domain.Book, error) {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 {
		page.Size = DefaultPageSize
	}
	if page.Size > MaxPageSize {
		page.Size = MaxPageSize
	}
	return s.books.List(ctx, page)
}

func (s *bookService) prepare(in BookInput) (*domain.Book, error) {
	in.BookName = strings.TrimSpace(in.BookName)
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.CreatedBy = strings.TrimSpace(in.CreatedBy)
	in.BookPrice = json.Number(strings.TrimSpace(string(in.BookPrice)))
	in.BookID = json.Number(strings.TrimSpace(string(in.BookID)))

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in.toDomain()
}

// ParsePage reads page and size query values, applying defaults for empty input.
func ParsePage(pageValue, sizeValue string) (domain.Page, error) {
	page := domain.Page{Number: 1, Size: DefaultPageSize}
	var fields []domain.FieldError

	if v := strings.TrimSpace(pageValue); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields = append(fields, domain.FieldError{Param: "page", Msg: "page must be a positive integer", Value: pageValue})
		} else {
			page.Number = n
		}
	}
	if v := strings.TrimSpace(sizeValue); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields = append(fields, domain.FieldError{Param: "size", Msg: "size must be a positive integer", Value: sizeValue})
		} else {
			page.Size = n
		}
	}

	if len(fields) > 0 {
		return domain.Page{}, &domain.ValidationError{Fields: fields}
	}
	if page.Size > MaxPageSize {
		page.Size = MaxPageSize
	}
	return page, nil
}
