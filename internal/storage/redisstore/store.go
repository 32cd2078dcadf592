// Package redisstore implements the key-value storage backend over Redis.
//
// Books are stored as JSON values under book:<id> keys, with ids drawn from
// a counter and membership tracked in a set. Like the document backend it
// supports books only. Listing loads the member set and sorts in memory,
// which is fine at catalog scale.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

const (
	keyCounter = "bookshelf:book:next_id"
	keyMembers = "bookshelf:books"
	keyPrefix  = "bookshelf:book:"
)

// Store is the key-value backend.
type Store struct {
	storage.NoReviews
	storage.NoUsers

	rdb *redis.Client
}

var _ storage.Store = (*Store)(nil)

// Open connects to the configured Redis server.
func Open(ctx context.Context, cfg config.Redis) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return &Store{rdb: rdb}, nil
}

// NewStore wraps an already-configured client. Used by tests.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Capabilities() storage.Capabilities {
	return storage.Capabilities{Reviews: false, Users: false}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.rdb.Close()
}

func bookKey(id string) string {
	return keyPrefix + id
}

// allBooks loads every stored book sorted by title ascending.
func (s *Store) allBooks(ctx context.Context) ([]storage.Book, error) {
	ids, err := s.rdb.SMembers(ctx, keyMembers).Result()
	if err != nil {
		return nil, err
	}

	books := make([]storage.Book, 0, len(ids))
	for _, id := range ids {
		val, err := s.rdb.Get(ctx, bookKey(id)).Result()
		if errors.Is(err, redis.Nil) {
			continue // membership can lag a delete; skip the stale id
		}
		if err != nil {
			return nil, err
		}
		var book storage.Book
		if err := json.Unmarshal([]byte(val), &book); err != nil {
			return nil, fmt.Errorf("corrupt book record %s: %w", id, err)
		}
		books = append(books, book)
	}

	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})
	return books, nil
}

func (s *Store) ListBooks(ctx context.Context, limit int, cursor storage.Cursor) ([]storage.Book, storage.Cursor, error) {
	books, err := s.allBooks(ctx)
	if err != nil {
		return nil, "", err
	}

	offset := cursor.Offset()
	if offset > len(books) {
		offset = len(books)
	}
	end := offset + limit
	if end > len(books) {
		end = len(books)
	}

	page := books[offset:end]
	return page, storage.NextCursor(offset, limit, len(page)), nil
}

func (s *Store) SearchBooks(ctx context.Context, title, author string) ([]storage.Book, error) {
	books, err := s.allBooks(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]storage.Book, 0, len(books))
	for _, book := range books {
		if title != "" && !strings.Contains(book.Title, title) {
			continue
		}
		if author != "" && !strings.Contains(book.Author, author) {
			continue
		}
		matched = append(matched, book)
	}
	return matched, nil
}

func (s *Store) ReadBook(ctx context.Context, id string) (*storage.Book, error) {
	val, err := s.rdb.Get(ctx, bookKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var book storage.Book
	if err := json.Unmarshal([]byte(val), &book); err != nil {
		return nil, fmt.Errorf("corrupt book record %s: %w", id, err)
	}
	return &book, nil
}

func (s *Store) CreateBook(ctx context.Context, fields storage.BookFields) (*storage.Book, error) {
	seq, err := s.rdb.Incr(ctx, keyCounter).Result()
	if err != nil {
		return nil, err
	}

	book := storage.Book{ID: strconv.FormatInt(seq, 10)}
	applyFields(&book, fields)

	if err := s.writeBook(ctx, book); err != nil {
		return nil, err
	}
	if err := s.rdb.SAdd(ctx, keyMembers, book.ID).Err(); err != nil {
		return nil, err
	}
	return &book, nil
}

func (s *Store) UpdateBook(ctx context.Context, fields storage.BookFields, id string) (*storage.Book, error) {
	book, err := s.ReadBook(ctx, id)
	if err != nil {
		return nil, err
	}

	applyFields(book, fields)
	if err := s.writeBook(ctx, *book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, bookKey(id)).Err(); err != nil {
		return err
	}
	return s.rdb.SRem(ctx, keyMembers, id).Err()
}

func (s *Store) writeBook(ctx context.Context, book storage.Book) error {
	b, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, bookKey(book.ID), b, 0).Err()
}

// applyFields overwrites only the supplied fields on the stored record.
func applyFields(book *storage.Book, fields storage.BookFields) {
	if fields.Title != nil {
		book.Title = *fields.Title
	}
	if fields.Author != nil {
		book.Author = *fields.Author
	}
	if fields.PublishedDate != nil {
		book.PublishedDate = *fields.PublishedDate
	}
	if fields.ImageURL != nil {
		book.ImageURL = *fields.ImageURL
	}
	if fields.Description != nil {
		book.Description = *fields.Description
	}
	if fields.CreatedBy != nil {
		book.CreatedBy = *fields.CreatedBy
	}
	if fields.CreatedByID != nil {
		book.CreatedByID = *fields.CreatedByID
	}
}
