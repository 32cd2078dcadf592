package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mlutsenko/bookshelf/internal/auth"
)

// AuthTemplateData holds authentication info for templates.
// Templates access it via .Auth in the template data.
type AuthTemplateData struct {
	Enabled   bool   // Whether the active backend supports accounts
	LoggedIn  bool   // Whether user is logged in
	Username  string // Current user's username (empty if not logged in)
	CSRFToken string // CSRF token for forms
}

// authData assembles per-request template data from the session. Safe to
// call with a nil session manager (API-only setups, some tests).
func authData(c *gin.Context, sm *auth.SessionManager, enabled bool) AuthTemplateData {
	data := AuthTemplateData{
		Enabled:   enabled,
		CSRFToken: auth.GetCSRFToken(c),
	}
	if sm != nil && sm.IsAuthenticated(c.Request) {
		data.LoggedIn = true
		data.Username = sm.GetUsername(c.Request)
	}
	return data
}

// formatAverage renders an average rating for display. A book with no
// reviews shows "0.00".
func formatAverage(avg float64) string {
	return fmt.Sprintf("%.2f", avg)
}

// sanitizeRedirectPath returns a safe local redirect path, defaulting to "/"
// to prevent open redirects.
func sanitizeRedirectPath(path string) string {
	if path == "" || !strings.HasPrefix(path, "/") ||
		strings.HasPrefix(path, "//") ||
		strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return "/"
	}
	return path
}

// --- JSON response helpers (API surface) ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondUnauthorized sends a 401 Unauthorized response.
func respondUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 response. The actual
// error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	logrus.WithError(err).Error(context)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
