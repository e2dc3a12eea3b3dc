package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
)

type bookDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	BookName   string             `bson:"bookName"`
	BookPrice  float64            `bson:"bookPrice"`
	BookID     int64              `bson:"bookId"`
	AuthorName string             `bson:"authorName"`
	CreatedBy  string             `bson:"createdBy"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func bookToDocument(book *domain.Book) bookDocument {
	doc := bookDocument{
		BookName:   book.BookName,
		BookPrice:  book.BookPrice,
		BookID:     book.BookID,
		AuthorName: book.AuthorName,
		CreatedBy:  book.CreatedBy,
		CreatedAt:  book.CreatedAt.UTC(),
	}
	if oid, err := primitive.ObjectIDFromHex(book.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d bookDocument) toDomain() *domain.Book {
	return &domain.Book{
		ID:         d.ID.Hex(),
		BookName:   d.BookName,
		BookPrice:  d.BookPrice,
		BookID:     d.BookID,
		AuthorName: d.AuthorName,
		CreatedBy:  d.CreatedBy,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

// replacementFields lists every caller owned field; createdAt stays untouched.
func replacementFields(book *domain.Book) bson.M {
	return bson.M{
		"bookName":   book.BookName,
		"bookPrice":  book.BookPrice,
		"bookId":     book.BookID,
		"authorName": book.AuthorName,
		"createdBy":  book.CreatedBy,
	}
}

func listOptions(page domain.Page) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(page.Skip()).
		SetLimit(page.Limit())
}

type BookRepository struct {
	coll *mongo.Collection
}

func NewBookRepository(db *mongo.Database) repository.BookRepository {
	return &BookRepository{coll: db.Collection(bookCollection)}
}

// Init creates the unique bookId index and the author lookup index.
func (r *BookRepository) Init(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "bookId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("bookId_unique"),
		},
		{
			Keys:    bson.D{{Key: "authorName", Value: 1}},
			Options: options.Index().SetName("authorName"),
		},
	})
	if err != nil {
		return fmt.Errorf("create book indexes: %w", err)
	}
	return nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) (string, error) {
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC()
	}
	doc := bookToDocument(book)
	doc.ID = primitive.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", translateWriteError("insert book", err)
	}

	book.ID = doc.ID.Hex()
	return book.ID, nil
}

func (r *BookRepository) Replace(ctx context.Context, book *domain.Book) error {
	oid, err := objectID(book.ID)
	if err != nil {
		return err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bookDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": replacementFields(book)}, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return translateWriteError("update book", err)
		}
		return translateReadError("update book", err)
	}

	*book = *doc.toDomain()
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id string) (*domain.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc bookDocument
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateReadError("delete book", err)
	}
	return doc.toDomain(), nil
}

func (r *BookRepository) GetByAuthor(ctx context.Context, authorName string) (*domain.Book, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	var doc bookDocument
	if err := r.coll.FindOne(ctx, bson.M{"authorName": authorName}, opts).Decode(&doc); err != nil {
		return nil, translateReadError("find book", err)
	}
	return doc.toDomain(), nil
}

func (r *BookRepository) List(ctx context.Context, page domain.Page) ([]domain.Book, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, listOptions(page))
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer cursor.Close(ctx)

	books := []domain.Book{}
	for cursor.Next(ctx) {
		var doc bookDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode book: %w", err)
		}
		books = append(books, *doc.toDomain())
	}

	return books, cursor.Err()
}
