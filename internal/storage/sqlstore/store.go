// Package sqlstore implements the relational storage backend over GORM.
//
// It is the only backend with full capabilities: books, reviews and users.
// SQLite is the default driver; MySQL is selected through configuration.
//
// # Usage
//
//	store, err := sqlstore.Open(cfg.Database)
//	book, err := store.ReadBook(ctx, "42")
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/entities"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

// Store is the relational backend.
type Store struct {
	db *gorm.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Database) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.SQLDriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case config.SQLDriverSQLite, "":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown sql driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.User{},
		&entities.Review{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStore wraps an already-open GORM handle. Used by tests.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Capabilities() storage.Capabilities {
	return storage.Capabilities{Reviews: true, Users: true}
}

// SQLDB exposes the underlying *sql.DB, used for the session store.
func (s *Store) SQLDB() (*sql.DB, error) {
	return s.db.DB()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// parseID maps the string book id back to the integer primary key. Anything
// that is not a positive integer cannot name an existing row.
func parseID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, storage.ErrNotFound
	}
	return uint(n), nil
}

func (s *Store) ListBooks(ctx context.Context, limit int, cursor storage.Cursor) ([]storage.Book, storage.Cursor, error) {
	offset := cursor.Offset()

	var rows []entities.Book
	err := s.db.WithContext(ctx).
		Order("title").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	books := make([]storage.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, fromRow(row))
	}
	return books, storage.NextCursor(offset, limit, len(books)), nil
}

func (s *Store) SearchBooks(ctx context.Context, title, author string) ([]storage.Book, error) {
	query := s.db.WithContext(ctx).Order("title")
	if title != "" {
		query = query.Where("title LIKE ?", "%"+title+"%")
	}
	if author != "" {
		query = query.Where("author LIKE ?", "%"+author+"%")
	}

	var rows []entities.Book
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	books := make([]storage.Book, 0, len(rows))
	for _, row := range rows {
		books = append(books, fromRow(row))
	}
	return books, nil
}

func (s *Store) ReadBook(ctx context.Context, id string) (*storage.Book, error) {
	pk, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var row entities.Book
	if err := s.db.WithContext(ctx).First(&row, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	book := fromRow(row)
	return &book, nil
}

func (s *Store) CreateBook(ctx context.Context, fields storage.BookFields) (*storage.Book, error) {
	row := entities.Book{}
	applyFields(&row, fields)

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	book := fromRow(row)
	return &book, nil
}

func (s *Store) UpdateBook(ctx context.Context, fields storage.BookFields, id string) (*storage.Book, error) {
	pk, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var row entities.Book
	if err := s.db.WithContext(ctx).First(&row, pk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	applyFields(&row, fields)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	book := fromRow(row)
	return &book, nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	pk, err := parseID(id)
	if err != nil {
		// Nothing with this id can exist, so there is nothing to delete.
		return nil
	}
	return s.db.WithContext(ctx).Delete(&entities.Book{}, pk).Error
}

func (s *Store) ReadReview(ctx context.Context, bookID string, userID uint) (*storage.Review, error) {
	pk, err := parseID(bookID)
	if err != nil {
		return nil, err
	}

	var row entities.Review
	err = s.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", pk, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	review := fromReviewRow(row)
	return &review, nil
}

func (s *Store) CreateReview(ctx context.Context, bookID string, userID uint, fields storage.ReviewFields) (*storage.Review, error) {
	pk, err := parseID(bookID)
	if err != nil {
		return nil, err
	}

	row := entities.Review{
		BookID:     pk,
		UserID:     userID,
		Rating:     fields.Rating,
		Review:     fields.Review,
		IsFavorite: fields.IsFavorite,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrReviewExists
		}
		return nil, err
	}
	review := fromReviewRow(row)
	return &review, nil
}

func (s *Store) UpdateReview(ctx context.Context, bookID string, userID uint, fields storage.ReviewFields) (*storage.Review, error) {
	pk, err := parseID(bookID)
	if err != nil {
		return nil, err
	}

	var row entities.Review
	err = s.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", pk, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	row.Rating = fields.Rating
	row.Review = fields.Review
	row.IsFavorite = fields.IsFavorite
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}
	review := fromReviewRow(row)
	return &review, nil
}

func (s *Store) DeleteReview(ctx context.Context, bookID string, userID uint) error {
	pk, err := parseID(bookID)
	if err != nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("book_id = ? AND user_id = ?", pk, userID).
		Delete(&entities.Review{}).Error
}

func (s *Store) BookReviewStats(ctx context.Context, bookID string) (storage.ReviewStats, error) {
	pk, err := parseID(bookID)
	if err != nil {
		return storage.ReviewStats{}, err
	}

	var stats storage.ReviewStats
	err = s.db.WithContext(ctx).Model(&entities.Review{}).
		Where("book_id = ?", pk).
		Count(&stats.Count).Error
	if err != nil {
		return storage.ReviewStats{}, err
	}
	if stats.Count == 0 {
		return stats, nil
	}

	var avg sql.NullFloat64
	err = s.db.WithContext(ctx).Model(&entities.Review{}).
		Where("book_id = ?", pk).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return storage.ReviewStats{}, err
	}
	stats.Average = avg.Float64
	return stats, nil
}

func (s *Store) DeleteOrphanReviews(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("book_id NOT IN (?)", s.db.Model(&entities.Book{}).Select("id")).
		Delete(&entities.Review{})
	return result.RowsAffected, result.Error
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*storage.User, error) {
	row := entities.User{
		Username: username,
		Password: passwordHash,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrUserExists
		}
		return nil, err
	}
	user := fromUserRow(row)
	return &user, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*storage.User, error) {
	var row entities.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	user := fromUserRow(row)
	return &user, nil
}

func (s *Store) UserByID(ctx context.Context, id uint) (*storage.User, error) {
	var row entities.User
	err := s.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	user := fromUserRow(row)
	return &user, nil
}

// isUniqueViolation matches constraint errors across the sqlite and mysql
// drivers without importing either driver's error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "constraint failed")
}
