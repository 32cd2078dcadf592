package http

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlutsenko/bookshelf/internal/storage"
)

func strptr(s string) *string { return &s }

func createBook(t *testing.T, store storage.Store, title, author string) *storage.Book {
	t.Helper()
	book, err := store.CreateBook(context.Background(), storage.BookFields{
		Title:  strptr(title),
		Author: strptr(author),
	})
	require.NoError(t, err)
	return book
}

func TestBooksList(t *testing.T) {
	t.Run("renders books ordered by title with a next page link", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 2)
		defer cleanup()

		createBook(t, store, "Cryptonomicon", "Neal Stephenson")
		createBook(t, store, "Anathem", "Neal Stephenson")
		createBook(t, store, "Baudolino", "Umberto Eco")

		w := get(router, "/", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, "Anathem")
		assert.Contains(t, body, "Baudolino")
		assert.NotContains(t, body, "Cryptonomicon")
		assert.Contains(t, body, "page_token=")
	})

	t.Run("follows the page token to the next page", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 2)
		defer cleanup()

		createBook(t, store, "Cryptonomicon", "Neal Stephenson")
		createBook(t, store, "Anathem", "Neal Stephenson")
		createBook(t, store, "Baudolino", "Umberto Eco")

		_, next, err := store.ListBooks(context.Background(), 2, "")
		require.NoError(t, err)
		require.NotEmpty(t, next)

		w := get(router, "/?page_token="+url.QueryEscape(string(next)), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Cryptonomicon")
		assert.NotContains(t, w.Body.String(), "Anathem")
	})

	t.Run("treats a garbage page token as the first page", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 2)
		defer cleanup()

		createBook(t, store, "Anathem", "Neal Stephenson")

		w := get(router, "/?page_token=not-a-token", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Anathem")
	})

	t.Run("a bare search flag keeps pagination", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 1)
		defer cleanup()

		createBook(t, store, "Anathem", "Neal Stephenson")
		createBook(t, store, "Baudolino", "Umberto Eco")

		// An empty search-form submit lands here; it is a plain listing,
		// not an active filter.
		w := get(router, "/?search=1", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, "Anathem")
		assert.NotContains(t, body, "Baudolino")
		assert.Contains(t, body, "page_token=")
	})

	t.Run("search filters bypass pagination", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 1)
		defer cleanup()

		createBook(t, store, "Anathem", "Neal Stephenson")
		createBook(t, store, "Cryptonomicon", "Neal Stephenson")
		createBook(t, store, "Baudolino", "Umberto Eco")

		w := get(router, "/?author="+url.QueryEscape("Stephenson"), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		body := w.Body.String()
		assert.Contains(t, body, "Anathem")
		assert.Contains(t, body, "Cryptonomicon")
		assert.NotContains(t, body, "Baudolino")
		assert.NotContains(t, body, "page_token=")
	})
}

func TestBooksSearchForm(t *testing.T) {
	t.Run("redirects to the list with terms in the query", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := postForm(router, "/search", url.Values{"title": {"anathem"}}, nil)
		assert.Equal(t, http.StatusFound, w.Code)

		location := w.Header().Get("Location")
		assert.Contains(t, location, "search=1")
		assert.Contains(t, location, "title=anathem")
	})

	t.Run("GET /search forwards to the list", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := get(router, "/search?title=anathem", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/?title=anathem", w.Header().Get("Location"))
	})
}

func TestBooksView(t *testing.T) {
	t.Run("shows the book with a zero rating when unreviewed", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := get(router, "/"+book.ID+"/", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Anathem")
		assert.Contains(t, w.Body.String(), "0.00")
	})

	t.Run("pre-selects the caller's stored rating in the form", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		cookies := registerAndLogin(t, router, "reader")

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := postForm(router, "/"+book.ID+"/", url.Values{"rating": {"2"}}, cookies)
		require.Equal(t, http.StatusFound, w.Code)

		w = get(router, "/"+book.ID+"/", cookies)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="2" selected`)
		assert.NotContains(t, w.Body.String(), `value="5" selected`)
	})

	t.Run("defaults the rating form to the top of the scale", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		cookies := registerAndLogin(t, router, "reader")

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := get(router, "/"+book.ID+"/", cookies)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="5" selected`)
	})

	t.Run("returns 404 for an unknown book", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := get(router, "/999/", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksAdd(t *testing.T) {
	t.Run("creates a book and redirects to it", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()

		form := url.Values{
			"title":  {"Anathem"},
			"author": {"Neal Stephenson"},
		}
		w := postForm(router, "/add", form, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/1/", w.Header().Get("Location"))

		book, err := store.ReadBook(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "Anathem", book.Title)
		assert.Equal(t, "Neal Stephenson", book.Author)
	})

	t.Run("re-renders the form when title is missing", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		form := url.Values{"author": {"Neal Stephenson"}}
		w := postForm(router, "/add", form, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Title is required")
		assert.Contains(t, w.Body.String(), "Neal Stephenson")
	})

	t.Run("records the logged-in creator", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		cookies := registerAndLogin(t, router, "creator")

		w := postForm(router, "/add", url.Values{"title": {"Anathem"}}, cookies)
		require.Equal(t, http.StatusFound, w.Code)

		book, err := store.ReadBook(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "creator", book.CreatedBy)
	})
}

func TestBooksEdit(t *testing.T) {
	t.Run("updates fields and redirects to the book", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		form := url.Values{
			"title":       {"Anathem (Revised)"},
			"author":      {"Neal Stephenson"},
			"description": {"A monastic thriller"},
		}
		w := postForm(router, "/"+book.ID+"/edit", form, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/"+book.ID+"/", w.Header().Get("Location"))

		updated, err := store.ReadBook(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Anathem (Revised)", updated.Title)
		assert.Equal(t, "A monastic thriller", updated.Description)
	})

	t.Run("returns 404 when editing an unknown book", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := postForm(router, "/999/edit", url.Values{"title": {"x"}}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBooksDelete(t *testing.T) {
	t.Run("removes the book and returns to the list", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := get(router, "/"+book.ID+"/delete", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		_, err := store.ReadBook(context.Background(), book.ID)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("deleting an absent book is not an error", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := get(router, "/999/delete", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})
}

func TestSubmitReview(t *testing.T) {
	t.Run("anonymous callers are sent to login", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := postForm(router, "/"+book.ID+"/", url.Values{"rating": {"4"}}, nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/login")
	})

	t.Run("creates then replaces the caller's single review", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		cookies := registerAndLogin(t, router, "reader")

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := postForm(router, "/"+book.ID+"/", url.Values{"rating": {"4"}}, cookies)
		assert.Equal(t, http.StatusFound, w.Code)

		stats, err := store.BookReviewStats(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Count)
		assert.InDelta(t, 4.0, stats.Average, 0.001)

		// Second submission replaces, it never duplicates
		w = postForm(router, "/"+book.ID+"/", url.Values{
			"rating": {"2"},
			"review": {"changed my mind"},
		}, cookies)
		assert.Equal(t, http.StatusFound, w.Code)

		stats, err = store.BookReviewStats(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Count)
		assert.InDelta(t, 2.0, stats.Average, 0.001)
	})

	t.Run("rating zero withdraws the review", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		cookies := registerAndLogin(t, router, "reader")

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := postForm(router, "/"+book.ID+"/", url.Values{"rating": {"5"}}, cookies)
		require.Equal(t, http.StatusFound, w.Code)

		w = postForm(router, "/"+book.ID+"/", url.Values{"rating": {"0"}}, cookies)
		assert.Equal(t, http.StatusFound, w.Code)

		stats, err := store.BookReviewStats(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.Count)
	})

	t.Run("rejects out-of-range ratings", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		cookies := registerAndLogin(t, router, "reader")

		book := createBook(t, store, "Anathem", "Neal Stephenson")

		w := postForm(router, "/"+book.ID+"/", url.Values{"rating": {"11"}}, cookies)
		assert.Equal(t, http.StatusFound, w.Code)

		stats, err := store.BookReviewStats(context.Background(), book.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), stats.Count)
	})
}
