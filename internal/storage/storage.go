// Package storage defines the backend-agnostic persistence contract for the
// bookshelf application.
//
// Three interchangeable backends exist: a relational one (GORM over SQLite or
// MySQL) that supports books, reviews and users, and a document one (MongoDB)
// and a key-value one (Redis) that support books only. Callers must consult
// Capabilities() before touching reviews or users rather than assume support.
//
// # Usage
//
//	store, err := storage.Open(ctx, cfg.Storage)
//	books, next, err := store.ListBooks(ctx, 10, "")
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a book, review or user does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUserExists is returned on a username uniqueness violation.
	ErrUserExists = errors.New("username already taken")
	// ErrReviewExists is returned when a (book, user) review row already exists.
	ErrReviewExists = errors.New("review already exists")
	// ErrNotSupported is returned by backends that lack the requested capability.
	ErrNotSupported = errors.New("operation not supported by this backend")
	// ErrUnavailable wraps connectivity failures so callers can tell a broken
	// backend apart from a bad request.
	ErrUnavailable = errors.New("storage unavailable")
)

// Capabilities reports the optional features a backend implements.
type Capabilities struct {
	Reviews bool
	Users   bool
}

// Book is the normalized record handed to request handlers. ID is a string
// regardless of backend: relational ids are rendered as decimal strings,
// document ids as ObjectID hex. Backend-internal bookkeeping fields never
// appear here.
type Book struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	PublishedDate string `json:"publishedDate,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Description   string `json:"description,omitempty"`
	CreatedBy     string `json:"createdBy,omitempty"`
	CreatedByID   string `json:"createdById,omitempty"`
}

// BookFields carries the attributes of a create or partial update. Nil
// pointers mean "leave untouched"; updates overwrite only the supplied
// fields.
type BookFields struct {
	Title         *string
	Author        *string
	PublishedDate *string
	ImageURL      *string
	Description   *string
	CreatedBy     *string
	CreatedByID   *string
}

// Review is the normalized review record. Reviews and users only exist on
// the relational backend, so the user key stays an integer; the book key is
// the cross-backend string id.
type Review struct {
	BookID     string `json:"book_id"`
	UserID     uint   `json:"user_id"`
	Rating     int    `json:"rating"`
	Review     string `json:"review,omitempty"`
	IsFavorite bool   `json:"is_favorite"`
}

// ReviewFields carries a review submission. A rating of zero is the delete
// sentinel, handled by the view handler rather than the store.
type ReviewFields struct {
	Rating     int
	Review     string
	IsFavorite bool
}

// ReviewStats aggregates the review rows for one book.
type ReviewStats struct {
	Average float64
	Count   int64
}

// User is the normalized user record. Password holds the stored hash.
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	IsActive bool   `json:"is_active"`
}

// BookStore is the book contract every backend implements.
type BookStore interface {
	// ListBooks returns up to limit books ordered by title ascending,
	// skipping the offset encoded in cursor. The next cursor is non-empty
	// only when exactly limit rows were returned, so a collection whose size
	// is an exact multiple of limit advertises one extra empty page. That
	// quirk is kept on purpose.
	ListBooks(ctx context.Context, limit int, cursor Cursor) ([]Book, Cursor, error)
	// SearchBooks returns books matched by title and/or author substring.
	// Empty arguments are ignored; search results are never paginated.
	SearchBooks(ctx context.Context, title, author string) ([]Book, error)
	ReadBook(ctx context.Context, id string) (*Book, error)
	CreateBook(ctx context.Context, fields BookFields) (*Book, error)
	UpdateBook(ctx context.Context, fields BookFields, id string) (*Book, error)
	// DeleteBook is idempotent: deleting an absent book is not an error.
	DeleteBook(ctx context.Context, id string) error
}

// ReviewStore is the per-user review contract, relational backend only.
type ReviewStore interface {
	ReadReview(ctx context.Context, bookID string, userID uint) (*Review, error)
	CreateReview(ctx context.Context, bookID string, userID uint, fields ReviewFields) (*Review, error)
	UpdateReview(ctx context.Context, bookID string, userID uint, fields ReviewFields) (*Review, error)
	DeleteReview(ctx context.Context, bookID string, userID uint) error
	BookReviewStats(ctx context.Context, bookID string) (ReviewStats, error)
	// DeleteOrphanReviews removes reviews whose book no longer exists and
	// reports how many rows went away.
	DeleteOrphanReviews(ctx context.Context) (int64, error)
}

// UserStore is the account contract, relational backend only. Password
// hashing happens in the auth service; stores persist what they are given.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByID(ctx context.Context, id uint) (*User, error)
}

// Store is the full backend surface handed to the application. Backends
// without review/user support still satisfy the interface by embedding
// NoReviews/NoUsers and reporting the gap through Capabilities.
type Store interface {
	BookStore
	ReviewStore
	UserStore

	Capabilities() Capabilities
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NoReviews provides ErrNotSupported stubs for backends without reviews.
type NoReviews struct{}

func (NoReviews) ReadReview(context.Context, string, uint) (*Review, error) {
	return nil, ErrNotSupported
}

func (NoReviews) CreateReview(context.Context, string, uint, ReviewFields) (*Review, error) {
	return nil, ErrNotSupported
}

func (NoReviews) UpdateReview(context.Context, string, uint, ReviewFields) (*Review, error) {
	return nil, ErrNotSupported
}

func (NoReviews) DeleteReview(context.Context, string, uint) error {
	return ErrNotSupported
}

func (NoReviews) BookReviewStats(context.Context, string) (ReviewStats, error) {
	return ReviewStats{}, ErrNotSupported
}

func (NoReviews) DeleteOrphanReviews(context.Context) (int64, error) {
	return 0, ErrNotSupported
}

// NoUsers provides ErrNotSupported stubs for backends without accounts.
type NoUsers struct{}

func (NoUsers) CreateUser(context.Context, string, string) (*User, error) {
	return nil, ErrNotSupported
}

func (NoUsers) UserByUsername(context.Context, string) (*User, error) {
	return nil, ErrNotSupported
}

func (NoUsers) UserByID(context.Context, uint) (*User, error) {
	return nil, ErrNotSupported
}
