package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
	"bookshelf/internal/storage"
)

const snapshotPageSize = MaxPageSize

// Snapshot describes an exported copy of the catalogue.
type Snapshot struct {
	Location  string
	Key       string
	Books     int
	CreatedAt time.Time
}

// SnapshotRecord is the JSON form of one book inside a snapshot.
type SnapshotRecord struct {
	ID         string    `json:"id"`
	BookName   string    `json:"bookName"`
	BookPrice  float64   `json:"bookPrice"`
	BookID     int64     `json:"bookId"`
	AuthorName string    `json:"authorName"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SnapshotService exports the book catalogue to object storage.
type SnapshotService interface {
	Create(ctx context.Context) (*Snapshot, error)
	List(ctx context.Context) ([]storage.ObjectInfo, error)
}

type snapshotService struct {
	books     repository.BookRepository
	storage   storage.Service
	bucket    string
	keyPrefix string
	now       func() time.Time
}

func NewSnapshotService(books repository.BookRepository, store storage.Service, bucket, keyPrefix string) SnapshotService {
	return &snapshotService{
		books:     books,
		storage:   store,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		now:       time.Now,
	}
}

func (s *snapshotService) Create(ctx context.Context) (*Snapshot, error) {
	records := []SnapshotRecord{}
	for page := 1; ; page++ {
		books, err := s.books.List(ctx, domain.Page{Number: page, Size: snapshotPageSize})
		if err != nil {
			return nil, fmt.Errorf("list books page %d: %w", page, err)
		}
		for _, b := range books {
			records = append(records, SnapshotRecord{
				ID:         b.ID,
				BookName:   b.BookName,
				BookPrice:  b.BookPrice,
				BookID:     b.BookID,
				AuthorName: b.AuthorName,
				CreatedBy:  b.CreatedBy,
				CreatedAt:  b.CreatedAt,
			})
		}
		if len(books) < snapshotPageSize {
			break
		}
	}

	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	now := s.now().UTC()
	key := path.Join(s.keyPrefix, fmt.Sprintf("books-%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.storage.PutObject(ctx, bytes.NewReader(body), storage.PutOptions{
		Bucket:      s.bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}

	return &Snapshot{
		Location:  location,
		Key:       key,
		Books:     len(records),
		CreatedAt: now,
	}, nil
}

func (s *snapshotService) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	prefix := s.keyPrefix
	if prefix != "" {
		prefix += "/"
	}
	return s.storage.ListObjects(ctx, s.bucket, prefix)
}
