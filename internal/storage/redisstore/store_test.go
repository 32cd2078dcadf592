package redisstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlutsenko/bookshelf/internal/storage"
)

// Live-server round trips are integration territory; these tests cover the
// pure pieces: field application, key layout, capability flags.

func strptr(s string) *string {
	return &s
}

func TestApplyFields_PartialOverwrite(t *testing.T) {
	book := storage.Book{
		ID:     "3",
		Title:  "Original",
		Author: "Original Author",
	}

	applyFields(&book, storage.BookFields{Title: strptr("Renamed")})

	assert.Equal(t, "Renamed", book.Title)
	assert.Equal(t, "Original Author", book.Author, "unsupplied fields stay untouched")
	assert.Equal(t, "3", book.ID)
}

func TestApplyFields_AllFields(t *testing.T) {
	var book storage.Book
	applyFields(&book, storage.BookFields{
		Title:         strptr("T"),
		Author:        strptr("A"),
		PublishedDate: strptr("2001"),
		ImageURL:      strptr("http://example.com/c.jpg"),
		Description:   strptr("D"),
		CreatedBy:     strptr("who"),
		CreatedByID:   strptr("who-id"),
	})

	assert.Equal(t, storage.Book{
		Title:         "T",
		Author:        "A",
		PublishedDate: "2001",
		ImageURL:      "http://example.com/c.jpg",
		Description:   "D",
		CreatedBy:     "who",
		CreatedByID:   "who-id",
	}, book)
}

func TestBookKey(t *testing.T) {
	assert.Equal(t, "bookshelf:book:42", bookKey("42"))
}

func TestCapabilities_BooksOnly(t *testing.T) {
	store := &Store{}
	caps := store.Capabilities()
	assert.False(t, caps.Reviews)
	assert.False(t, caps.Users)
}
