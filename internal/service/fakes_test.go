package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"bookshelf/internal/domain"
	"bookshelf/internal/storage"
)

// fakeUserRepo enforces username uniqueness the way a unique index would.
type fakeUserRepo struct {
	mu      sync.Mutex
	byName  map[string]domain.User
	nextID  int
	lookups int

	// beforeLookup runs on every GetByUsername call, outside the lock.
	beforeLookup func()
	getErr       error
	createErr    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byName: map[string]domain.User{}}
}

func (r *fakeUserRepo) Init(context.Context) error { return nil }

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	if _, ok := r.byName[user.Username]; ok {
		return "", fmt.Errorf("insert user: %w", domain.ErrDuplicateKey)
	}
	r.nextID++
	user.ID = fmt.Sprintf("u%d", r.nextID)
	r.byName[user.Username] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.beforeLookup != nil {
		r.beforeLookup()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.getErr != nil {
		return nil, r.getErr
	}
	user, ok := r.byName[username]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byName {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}

type fakeHasher struct {
	err error
}

func (h fakeHasher) Hash(secret string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + secret, nil
}

func (h fakeHasher) Compare(hash, secret string) error {
	if hash != "hashed:"+secret {
		return fmt.Errorf("mismatch")
	}
	return nil
}

type fakeIssuer struct {
	mu     sync.Mutex
	err    error
	issued []string
}

func (i *fakeIssuer) Issue(_ context.Context, userID string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return "", i.err
	}
	i.issued = append(i.issued, userID)
	return "token-for-" + userID, nil
}

// fakeBookRepo keeps books in insertion order.
type fakeBookRepo struct {
	mu      sync.Mutex
	books   []domain.Book
	nextID  int
	pages   []domain.Page
	listErr error
}

func (r *fakeBookRepo) Init(context.Context) error { return nil }

func (r *fakeBookRepo) Create(_ context.Context, book *domain.Book) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.BookID == book.BookID {
			return "", domain.ErrDuplicateKey
		}
	}
	r.nextID++
	book.ID = fmt.Sprintf("b%d", r.nextID)
	r.books = append(r.books, *book)
	return book.ID, nil
}

func (r *fakeBookRepo) Replace(_ context.Context, book *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.books {
		if r.books[i].ID == book.ID {
			book.CreatedAt = r.books[i].CreatedAt
			r.books[i] = *book
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeBookRepo) Delete(_ context.Context, id string) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.books {
		if r.books[i].ID == id {
			b := r.books[i]
			r.books = append(r.books[:i], r.books[i+1:]...)
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBookRepo) GetByAuthor(_ context.Context, authorName string) (*domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.AuthorName == authorName {
			b := b
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeBookRepo) List(_ context.Context, page domain.Page) ([]domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, page)
	if r.listErr != nil {
		return nil, r.listErr
	}
	start := int(page.Skip())
	if start >= len(r.books) {
		return []domain.Book{}, nil
	}
	end := start + int(page.Limit())
	if end > len(r.books) {
		end = len(r.books)
	}
	return append([]domain.Book{}, r.books[start:end]...), nil
}

type fakeStorage struct {
	puts    []storage.PutOptions
	bodies  [][]byte
	objects []storage.ObjectInfo
	prefix  string
	err     error
}

func (s *fakeStorage) PutObject(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.puts = append(s.puts, opts)
	s.bodies = append(s.bodies, buf.Bytes())
	return storage.Location(opts.Bucket, opts.Key), nil
}

func (s *fakeStorage) ListObjects(_ context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	s.prefix = prefix
	var out []storage.ObjectInfo
	for _, o := range s.objects {
		if strings.HasPrefix(o.Key, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}
