package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mlutsenko/bookshelf/internal/auth"
	"github.com/mlutsenko/bookshelf/internal/config"
	"github.com/mlutsenko/bookshelf/internal/entities"
	"github.com/mlutsenko/bookshelf/internal/storage/sqlstore"
)

// testAuthConfig uses a low bcrypt cost so account tests stay fast.
func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime: time.Hour,
		BcryptCost:      4,
		JWTSecret:       "test-jwt-secret",
		JWTExpiry:       time.Hour,
	}
}

// newTestRouter builds the full router over a throwaway SQLite store with
// in-memory sessions. CSRF stays off so form posts don't need tokens.
func newTestRouter(t *testing.T, pageSize int) (*gin.Engine, *sqlstore.Store, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}, &entities.User{}, &entities.Review{}))

	store := sqlstore.NewStore(db)
	authCfg := testAuthConfig()

	sessions, err := auth.NewSessionManager(nil, authCfg)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Store:          store,
		AuthService:    auth.NewService(store, authCfg),
		SessionManager: sessions,
		TemplatesPath:  "../../templates",
		StaticPath:     "../../static",
		AuthConfig:     authCfg,
		PageSize:       pageSize,
		Version:        "test",
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return router, store, cleanup
}

func postForm(router *gin.Engine, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates an account through the real handlers and returns
// the session cookies of a logged-in user.
func registerAndLogin(t *testing.T, router *gin.Engine, username string) []*http.Cookie {
	t.Helper()

	form := url.Values{"username": {username}, "password": {"secret-pass"}}
	w := postForm(router, "/register", form, nil)
	require.Equal(t, http.StatusFound, w.Code)

	w = postForm(router, "/login", form, nil)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}
