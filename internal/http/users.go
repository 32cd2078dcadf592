package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mlutsenko/bookshelf/internal/auth"
)

// UsersController handles account registration and the login/logout flow.
type UsersController struct {
	service  *auth.Service
	sessions *auth.SessionManager
}

func NewUsersController(service *auth.Service, sessions *auth.SessionManager) *UsersController {
	return &UsersController{
		service:  service,
		sessions: sessions,
	}
}

// RegisterPage renders the registration form.
func (uc *UsersController) RegisterPage(c *gin.Context) {
	if uc.sessions.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if !uc.service.Enabled() {
		c.String(http.StatusNotFound, "Accounts are not available on this backend")
		return
	}

	c.HTML(http.StatusOK, "register.html", gin.H{
		"Title":    "Register",
		"Username": "",
		"Auth":     authData(c, uc.sessions, true),
	})
}

// Register creates an account. Validation and duplicate-username failures
// re-render the form with a message and the entered username kept.
func (uc *UsersController) Register(c *gin.Context) {
	if !uc.service.Enabled() {
		c.String(http.StatusNotFound, "Accounts are not available on this backend")
		return
	}

	username := c.PostForm("username")
	password := c.PostForm("password")

	_, err := uc.service.Register(c.Request.Context(), username, password)
	if err != nil {
		status := http.StatusBadRequest
		message := err.Error()
		switch {
		case errors.Is(err, auth.ErrUserExists):
			status = http.StatusConflict
		case errors.Is(err, auth.ErrUsernameInvalid),
			errors.Is(err, auth.ErrPasswordTooShort),
			errors.Is(err, auth.ErrPasswordTooLong):
			// message already user-facing
		default:
			logrus.WithError(err).Error("registering user")
			status = http.StatusInternalServerError
			message = "Registration failed. Please try again."
		}
		c.HTML(status, "register.html", gin.H{
			"Title":    "Register",
			"Username": username,
			"Error":    message,
			"Auth":     authData(c, uc.sessions, true),
		})
		return
	}

	uc.sessions.Flash(c.Request, "Account created. Please log in.")
	c.Redirect(http.StatusFound, "/login")
}

// LoginPage renders the login form. Already-authenticated users go back to
// the list.
func (uc *UsersController) LoginPage(c *gin.Context) {
	if uc.sessions.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if !uc.service.Enabled() {
		c.String(http.StatusNotFound, "Accounts are not available on this backend")
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":    "Login",
		"Next":     sanitizeRedirectPath(c.Query("next")),
		"Username": "",
		"Flash":    uc.sessions.PopFlash(c.Request),
		"Auth":     authData(c, uc.sessions, true),
	})
}

// Login checks the submitted credentials and starts a session. A wrong
// username and a wrong password are deliberately indistinguishable.
func (uc *UsersController) Login(c *gin.Context) {
	if !uc.service.Enabled() {
		c.String(http.StatusNotFound, "Accounts are not available on this backend")
		return
	}

	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))

	user, err := uc.service.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			logrus.WithError(err).Error("authenticating user")
		}
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"Title":    "Login",
			"Next":     next,
			"Username": username,
			"Error":    "Invalid username or password",
			"Auth":     authData(c, uc.sessions, true),
		})
		return
	}

	if err := uc.sessions.CreateSession(c.Request, user); err != nil {
		logrus.WithError(err).Error("creating session")
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Title":    "Login",
			"Next":     next,
			"Username": username,
			"Error":    "Failed to create session",
			"Auth":     authData(c, uc.sessions, true),
		})
		return
	}

	c.Redirect(http.StatusFound, next)
}

// Logout ends the session. Anonymous callers are sent to the login page
// instead, since there is nothing to log out of.
func (uc *UsersController) Logout(c *gin.Context) {
	if !uc.sessions.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err := uc.sessions.DestroySession(c.Request); err != nil {
		logrus.WithError(err).Error("destroying session")
	}
	c.Redirect(http.StatusFound, "/")
}
