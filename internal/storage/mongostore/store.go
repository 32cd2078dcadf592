// Package mongostore implements the document storage backend over MongoDB.
//
// It supports books only; reviews and users are reported as unsupported
// through Capabilities. This capability gap mirrors the document deployment
// it replaces and is deliberate, not an omission.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

const booksCollection = "books"

// Store is the document backend.
type Store struct {
	storage.NoReviews
	storage.NoUsers

	client *mongo.Client
	books  *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// Open connects to the configured MongoDB deployment.
func Open(ctx context.Context, cfg config.Mongo) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	return &Store{
		client: client,
		books:  client.Database(cfg.Database).Collection(booksCollection),
	}, nil
}

func (s *Store) Capabilities() storage.Capabilities {
	return storage.Capabilities{Reviews: false, Users: false}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// parseID maps the string book id back to an ObjectID. Malformed hex cannot
// name an existing document.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}

func (s *Store) ListBooks(ctx context.Context, limit int, cursor storage.Cursor) ([]storage.Book, storage.Cursor, error) {
	offset := cursor.Offset()

	opts := options.Find().
		SetSort(bson.D{{Key: "title", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	result, err := s.books.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, "", err
	}
	defer result.Close(ctx)

	var docs []bookDoc
	if err := result.All(ctx, &docs); err != nil {
		return nil, "", err
	}

	books := make([]storage.Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, fromDoc(doc))
	}
	return books, storage.NextCursor(offset, limit, len(books)), nil
}

func (s *Store) SearchBooks(ctx context.Context, title, author string) ([]storage.Book, error) {
	filter := bson.M{}
	if title != "" {
		filter["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(title)}
	}
	if author != "" {
		filter["author"] = primitive.Regex{Pattern: regexp.QuoteMeta(author)}
	}

	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	result, err := s.books.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer result.Close(ctx)

	var docs []bookDoc
	if err := result.All(ctx, &docs); err != nil {
		return nil, err
	}

	books := make([]storage.Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, fromDoc(doc))
	}
	return books, nil
}

func (s *Store) ReadBook(ctx context.Context, id string) (*storage.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc bookDoc
	err = s.books.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	book := fromDoc(doc)
	return &book, nil
}

func (s *Store) CreateBook(ctx context.Context, fields storage.BookFields) (*storage.Book, error) {
	doc := bookDoc{}
	applyFields(&doc, fields)

	result, err := s.books.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return s.ReadBook(ctx, oid.Hex())
}

func (s *Store) UpdateBook(ctx context.Context, fields storage.BookFields, id string) (*storage.Book, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := setDocument(fields)
	if len(set) > 0 {
		result, err := s.books.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, storage.ErrNotFound
		}
	}
	return s.ReadBook(ctx, id)
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		// Nothing with this id can exist, so there is nothing to delete.
		return nil
	}
	_, err = s.books.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
