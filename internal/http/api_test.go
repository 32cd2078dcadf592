package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiLogin(t *testing.T, router http.Handler, username, password string) (string, int) {
	t.Helper()

	body := `{"username":"` + username + `","password":"` + password + `"}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		return "", w.Code
	}
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, w.Code
}

func apiGet(router http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAPILogin(t *testing.T) {
	t.Run("issues a token for valid credentials", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()
		registerAndLogin(t, router, "apiuser")

		token, code := apiLogin(t, router, "apiuser", "secret-pass")
		assert.Equal(t, http.StatusOK, code)
		assert.NotEmpty(t, token)
	})

	t.Run("rejects bad credentials", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()
		registerAndLogin(t, router, "apiuser")

		_, code := apiLogin(t, router, "apiuser", "wrong-pass")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/login", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPIBooks(t *testing.T) {
	t.Run("requires a bearer token", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := apiGet(router, "/api/books", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = apiGet(router, "/api/books", "garbage-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("lists books as JSON", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		registerAndLogin(t, router, "apiuser")
		createBook(t, store, "Anathem", "Neal Stephenson")

		token, code := apiLogin(t, router, "apiuser", "secret-pass")
		require.Equal(t, http.StatusOK, code)

		w := apiGet(router, "/api/books", token)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count int `json:"count"`
			Books []struct {
				Title string `json:"title"`
			} `json:"books"`
			NextPageToken string `json:"next_page_token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Books, 1)
		assert.Equal(t, "Anathem", resp.Books[0].Title)
		assert.Empty(t, resp.NextPageToken)
	})

	t.Run("returns a single book or 404", func(t *testing.T) {
		router, store, cleanup := newTestRouter(t, 10)
		defer cleanup()
		registerAndLogin(t, router, "apiuser")
		book := createBook(t, store, "Anathem", "Neal Stephenson")

		token, code := apiLogin(t, router, "apiuser", "secret-pass")
		require.Equal(t, http.StatusOK, code)

		w := apiGet(router, "/api/books/"+book.ID, token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Anathem")

		w = apiGet(router, "/api/books/999", token)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects a nonsense limit", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()
		registerAndLogin(t, router, "apiuser")

		token, code := apiLogin(t, router, "apiuser", "secret-pass")
		require.Equal(t, http.StatusOK, code)

		w := apiGet(router, "/api/books?limit=zero", token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
