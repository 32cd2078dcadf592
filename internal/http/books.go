package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mlutsenko/bookshelf/internal/auth"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

// MaxRating is the top of the star scale. Zero is not a rating: submitting
// it removes the caller's review.
const MaxRating = 5

// BooksController serves the HTML catalog: browse, search, view with
// reviews, and the add/edit/delete forms.
type BooksController struct {
	store    storage.Store
	sessions *auth.SessionManager
	pageSize int
}

func NewBooksController(store storage.Store, sessions *auth.SessionManager, pageSize int) *BooksController {
	return &BooksController{
		store:    store,
		sessions: sessions,
		pageSize: pageSize,
	}
}

func (bc *BooksController) auth(c *gin.Context) AuthTemplateData {
	return authData(c, bc.sessions, bc.store.Capabilities().Users)
}

func (bc *BooksController) userID(c *gin.Context) uint {
	if bc.sessions == nil {
		return 0
	}
	return bc.sessions.GetUserID(c.Request)
}

// List renders the catalog front page. When a title or author text filter
// is present the page shows unpaginated substring matches instead;
// otherwise books come one page at a time via the page_token parameter. A
// bare search flag with no terms is served from the paginated path like any
// other listing.
func (bc *BooksController) List(c *gin.Context) {
	title := c.Query("title")
	author := c.Query("author")
	searching := title != "" || author != ""

	var (
		books []storage.Book
		next  storage.Cursor
		err   error
	)
	if searching {
		books, err = bc.store.SearchBooks(c.Request.Context(), title, author)
	} else {
		cursor := storage.Cursor(c.Query("page_token"))
		books, next, err = bc.store.ListBooks(c.Request.Context(), bc.pageSize, cursor)
	}
	if err != nil {
		logrus.WithError(err).Error("listing books")
		c.String(http.StatusInternalServerError, "Error loading books")
		return
	}

	c.HTML(http.StatusOK, "list.html", gin.H{
		"Title":         "Books",
		"Books":         books,
		"NextPageToken": string(next),
		"Searching":     searching,
		"SearchTitle":   title,
		"SearchAuthor":  author,
		"Auth":          bc.auth(c),
		"Flash":         bc.popFlash(c),
	})
}

// Search accepts the search form and bounces back to the list with the
// terms echoed in the query string, so search results are linkable.
func (bc *BooksController) Search(c *gin.Context) {
	values := url.Values{}
	values.Set("search", "1")
	if title := c.PostForm("title"); title != "" {
		values.Set("title", title)
	}
	if author := c.PostForm("author"); author != "" {
		values.Set("author", author)
	}
	c.Redirect(http.StatusFound, "/?"+values.Encode())
}

// SearchRedirect forwards GET /search to the list, preserving the query.
func (bc *BooksController) SearchRedirect(c *gin.Context) {
	target := "/"
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Redirect(http.StatusFound, target)
}

// View renders a single book with its aggregated rating and, when the
// caller is logged in, their own review pre-filled in the rating form.
func (bc *BooksController) View(c *gin.Context) {
	book, err := bc.store.ReadBook(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("reading book")
		c.String(http.StatusInternalServerError, "Error loading book")
		return
	}

	data := gin.H{
		"Title":         book.Title,
		"Book":          book,
		"ReviewsActive": bc.store.Capabilities().Reviews,
		"AverageRating": formatAverage(0),
		"ReviewCount":   int64(0),
		"OwnRating":     MaxRating, // form default for a first review
		"Auth":          bc.auth(c),
		"Flash":         bc.popFlash(c),
	}

	if bc.store.Capabilities().Reviews {
		stats, err := bc.store.BookReviewStats(c.Request.Context(), book.ID)
		if err != nil {
			logrus.WithError(err).Error("loading review stats")
			c.String(http.StatusInternalServerError, "Error loading reviews")
			return
		}
		data["AverageRating"] = formatAverage(stats.Average)
		data["ReviewCount"] = stats.Count

		if userID := bc.userID(c); userID != 0 {
			own, err := bc.store.ReadReview(c.Request.Context(), book.ID, userID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				logrus.WithError(err).Error("loading own review")
				c.String(http.StatusInternalServerError, "Error loading reviews")
				return
			}
			data["OwnReview"] = own
			if own != nil {
				data["OwnRating"] = own.Rating
			}
		}
	}

	c.HTML(http.StatusOK, "view.html", data)
}

// SubmitReview handles the rating form on the book page. A rating of zero
// withdraws the caller's review; anything else creates or replaces it, so a
// user never holds more than one review per book.
func (bc *BooksController) SubmitReview(c *gin.Context) {
	bookID := c.Param("id")

	if !bc.store.Capabilities().Reviews {
		c.String(http.StatusNotFound, "Reviews are not available")
		return
	}
	userID := bc.userID(c)
	if userID == 0 {
		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape("/"+bookID+"/"))
		return
	}

	if _, err := bc.store.ReadBook(c.Request.Context(), bookID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "Book not found")
			return
		}
		logrus.WithError(err).Error("reading book")
		c.String(http.StatusInternalServerError, "Error loading book")
		return
	}

	rating, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil || rating < 0 || rating > MaxRating {
		bc.flash(c, "Rating must be between 0 and 5")
		c.Redirect(http.StatusFound, "/"+bookID+"/")
		return
	}

	if rating == 0 {
		err := bc.store.DeleteReview(c.Request.Context(), bookID, userID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			logrus.WithError(err).Error("deleting review")
			c.String(http.StatusInternalServerError, "Error removing review")
			return
		}
		bc.flash(c, "Your review was removed")
		c.Redirect(http.StatusFound, "/"+bookID+"/")
		return
	}

	fields := storage.ReviewFields{
		Rating:     rating,
		Review:     c.PostForm("review"),
		IsFavorite: c.PostForm("is_favorite") != "",
	}
	_, err = bc.store.CreateReview(c.Request.Context(), bookID, userID, fields)
	if errors.Is(err, storage.ErrReviewExists) {
		_, err = bc.store.UpdateReview(c.Request.Context(), bookID, userID, fields)
	}
	if err != nil {
		logrus.WithError(err).Error("saving review")
		c.String(http.StatusInternalServerError, "Error saving review")
		return
	}

	bc.flash(c, "Your review was saved")
	c.Redirect(http.StatusFound, "/"+bookID+"/")
}

// AddPage renders the empty book form.
func (bc *BooksController) AddPage(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", gin.H{
		"Title":  "Add book",
		"Action": "/add",
		"Auth":   bc.auth(c),
	})
}

// Add creates a book from the submitted form. Title is the only required
// field; when it is missing the form re-renders with the entered values
// kept.
func (bc *BooksController) Add(c *gin.Context) {
	fields, title := bc.formFields(c)
	if title == "" {
		c.HTML(http.StatusBadRequest, "form.html", gin.H{
			"Title":  "Add book",
			"Action": "/add",
			"Error":  "Title is required",
			"Form":   formValues(c),
			"Auth":   bc.auth(c),
		})
		return
	}

	if bc.sessions != nil {
		if username := bc.sessions.GetUsername(c.Request); username != "" {
			id := strconv.FormatUint(uint64(bc.userID(c)), 10)
			fields.CreatedBy = &username
			fields.CreatedByID = &id
		}
	}

	book, err := bc.store.CreateBook(c.Request.Context(), fields)
	if err != nil {
		logrus.WithError(err).Error("creating book")
		c.String(http.StatusInternalServerError, "Error creating book")
		return
	}
	c.Redirect(http.StatusFound, "/"+book.ID+"/")
}

// EditPage renders the book form pre-filled with the stored values.
func (bc *BooksController) EditPage(c *gin.Context) {
	book, err := bc.store.ReadBook(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("reading book")
		c.String(http.StatusInternalServerError, "Error loading book")
		return
	}

	c.HTML(http.StatusOK, "form.html", gin.H{
		"Title":  "Edit " + book.Title,
		"Action": "/" + book.ID + "/edit",
		"Form": map[string]string{
			"title":         book.Title,
			"author":        book.Author,
			"publishedDate": book.PublishedDate,
			"imageUrl":      book.ImageURL,
			"description":   book.Description,
		},
		"Auth": bc.auth(c),
	})
}

// Edit overwrites a book's attributes with the submitted form.
func (bc *BooksController) Edit(c *gin.Context) {
	id := c.Param("id")
	fields, title := bc.formFields(c)
	if title == "" {
		c.HTML(http.StatusBadRequest, "form.html", gin.H{
			"Title":  "Edit book",
			"Action": "/" + id + "/edit",
			"Error":  "Title is required",
			"Form":   formValues(c),
			"Auth":   bc.auth(c),
		})
		return
	}

	book, err := bc.store.UpdateBook(c.Request.Context(), fields, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("updating book")
		c.String(http.StatusInternalServerError, "Error updating book")
		return
	}
	c.Redirect(http.StatusFound, "/"+book.ID+"/")
}

// Delete removes a book and returns to the list. Deleting a book that is
// already gone is not an error. Reviews of the deleted book stay behind;
// the scheduled sweep reclaims them.
func (bc *BooksController) Delete(c *gin.Context) {
	if err := bc.store.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		logrus.WithError(err).Error("deleting book")
		c.String(http.StatusInternalServerError, "Error deleting book")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// formFields reads the book form into a partial-update struct. Every field
// present in the form is submitted, so all pointers are set; title comes
// back separately for the required-field check.
func (bc *BooksController) formFields(c *gin.Context) (storage.BookFields, string) {
	title := c.PostForm("title")
	author := c.PostForm("author")
	published := c.PostForm("publishedDate")
	image := c.PostForm("imageUrl")
	description := c.PostForm("description")
	return storage.BookFields{
		Title:         &title,
		Author:        &author,
		PublishedDate: &published,
		ImageURL:      &image,
		Description:   &description,
	}, title
}

func formValues(c *gin.Context) map[string]string {
	return map[string]string{
		"title":         c.PostForm("title"),
		"author":        c.PostForm("author"),
		"publishedDate": c.PostForm("publishedDate"),
		"imageUrl":      c.PostForm("imageUrl"),
		"description":   c.PostForm("description"),
	}
}

func (bc *BooksController) flash(c *gin.Context, message string) {
	if bc.sessions != nil {
		bc.sessions.Flash(c.Request, message)
	}
}

func (bc *BooksController) popFlash(c *gin.Context) string {
	if bc.sessions == nil {
		return ""
	}
	return bc.sessions.PopFlash(c.Request)
}
