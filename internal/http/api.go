package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mlutsenko/bookshelf/internal/auth"
	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

const (
	// contextUserID is the gin context key the JWT middleware stores the
	// authenticated user id under.
	contextUserID = "user_id"

	defaultAPIPageSize = 10
	maxAPIPageSize     = 100
)

// APIController serves the token-authenticated JSON surface. It is
// read-only for books; mutations go through the HTML forms.
type APIController struct {
	store   storage.Store
	service *auth.Service
	config  config.Auth
}

func NewAPIController(store storage.Store, service *auth.Service, cfg config.Auth) *APIController {
	return &APIController{
		store:   store,
		service: service,
		config:  cfg,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (ac *APIController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUsersUnsupported) {
			respondUnauthorized(c, "invalid username or password")
			return
		}
		respondInternalError(c, err, "api login")
		return
	}

	token, err := auth.GenerateAPIToken(user.ID, ac.config.JWTSecret, ac.config.JWTExpiry)
	if err != nil {
		respondInternalError(c, err, "issuing token")
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token})
}

// ListBooks returns one page of books ordered by title. The page_token
// parameter continues a previous listing; limit is clamped to 100.
func (ac *APIController) ListBooks(c *gin.Context) {
	limit := defaultAPIPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondBadRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}
	if limit > maxAPIPageSize {
		limit = maxAPIPageSize
	}

	cursor := storage.Cursor(c.Query("page_token"))
	books, next, err := ac.store.ListBooks(c.Request.Context(), limit, cursor)
	if err != nil {
		respondInternalError(c, err, "listing books")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"books":           books,
		"count":           len(books),
		"next_page_token": string(next),
	})
}

// GetBook returns a single book by id.
func (ac *APIController) GetBook(c *gin.Context) {
	book, err := ac.store.ReadBook(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "reading book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// JWTAuthMiddleware rejects requests without a valid bearer token and
// exposes the token's user id to downstream handlers.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := auth.ParseAPIToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid or expired token"})
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Next()
	}
}
