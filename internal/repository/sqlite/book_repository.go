package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

const bookColumns = `id, book_name, book_price, book_id, author_name, created_by, created_at`

type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) repository.BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `SELECT 1 FROM book LIMIT 1`); err != nil {
		return fmt.Errorf("check book table: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (string, error) {
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC()
	}
	id := uuid.NewString()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO book (id, book_name, book_price, book_id, author_name, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		book.BookName,
		book.BookPrice,
		book.BookID,
		book.AuthorName,
		book.CreatedBy,
		book.CreatedAt.UTC(),
	)
	if err != nil {
		return "", translateWriteError("insert book", err)
	}

	book.ID = id
	return id, nil
}

// Replace overwrites every caller supplied field of the book identified by
// book.ID and reloads the stored row into book. CreatedAt is preserved.
func (r *BookRepository) Replace(ctx context.Context, book *domain.Book) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE book
SET book_name=?, book_price=?, book_id=?, author_name=?, created_by=?
WHERE id=?`,
		book.BookName,
		book.BookPrice,
		book.BookID,
		book.AuthorName,
		book.CreatedBy,
		book.ID,
	)
	if err != nil {
		return translateWriteError("update book", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("book update rows affected: %w", err)
	}
	if aff == 0 {
		return domain.ErrNotFound
	}

	stored, err := scanBook(tx.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM book WHERE id=?`, book.ID))
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit book update: %w", err)
	}
	*book = *stored
	return nil
}

// Delete removes the book and returns the row as it was before removal.
func (r *BookRepository) Delete(ctx context.Context, id string) (*domain.Book, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	book, err := scanBook(tx.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM book WHERE id=?`, id))
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM book WHERE id=?`, id)
	if err != nil {
		return nil, fmt.Errorf("delete book: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("book delete rows affected: %w", err)
	}
	if aff == 0 {
		return nil, domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit book delete: %w", err)
	}
	return book, nil
}

func (r *BookRepository) GetByAuthor(ctx context.Context, authorName string) (*domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+bookColumns+`
FROM book
WHERE author_name=?
ORDER BY rowid ASC
LIMIT 1`,
		authorName,
	)
	return scanBook(row)
}

func (r *BookRepository) List(ctx context.Context, page domain.Page) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+bookColumns+`
FROM book
ORDER BY rowid ASC
LIMIT ? OFFSET ?`,
		page.Limit(),
		page.Skip(),
	)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}

	return books, rows.Err()
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var book domain.Book
	if err := row.Scan(
		&book.ID,
		&book.BookName,
		&book.BookPrice,
		&book.BookID,
		&book.AuthorName,
		&book.CreatedBy,
		&book.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	book.CreatedAt = book.CreatedAt.UTC()
	return &book, nil
}
