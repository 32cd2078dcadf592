package http

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/mlutsenko/bookshelf/internal/auth"
	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/storage"
)

// RouterConfig carries every dependency the router needs. Using a struct
// keeps NewRouter testable and the parameter count sane.
type RouterConfig struct {
	Store          storage.Store
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool
	TemplatesPath  string
	StaticPath     string
	AuthConfig     config.Auth
	PageSize       int
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	tmpl := template.Must(template.New("").ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)
	router.Static("/static", cfg.StaticPath)

	books := NewBooksController(cfg.Store, cfg.SessionManager, cfg.PageSize)
	users := NewUsersController(cfg.AuthService, cfg.SessionManager)
	api := NewAPIController(cfg.Store, cfg.AuthService, cfg.AuthConfig)
	health := NewHealthController(cfg.Store, cfg.Version)

	router.GET("/health", health.Status)

	// Account routes
	router.GET("/register", users.RegisterPage)
	router.POST("/register", users.Register)
	router.GET("/login", users.LoginPage)
	router.POST("/login", users.Login)
	router.GET("/logout", users.Logout)
	router.POST("/logout", users.Logout)

	// JSON API (JWT auth, no sessions)
	router.POST("/api/login", api.Login)
	apiGroup := router.Group("/api", JWTAuthMiddleware(cfg.AuthConfig.JWTSecret))
	apiGroup.GET("/books", api.ListBooks)
	apiGroup.GET("/books/:id", api.GetBook)

	// Catalog routes
	router.GET("/", books.List)
	router.GET("/search", books.SearchRedirect)
	router.POST("/search", books.Search)
	router.GET("/add", books.AddPage)
	router.POST("/add", books.Add)
	router.GET("/:id/", books.View)
	router.POST("/:id/", books.SubmitReview)
	router.GET("/:id/edit", books.EditPage)
	router.POST("/:id/edit", books.Edit)
	router.GET("/:id/delete", books.Delete)

	return router
}
