package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	t.Run("reports healthy with a reachable store", func(t *testing.T) {
		router, _, cleanup := newTestRouter(t, 10)
		defer cleanup()

		w := get(router, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "ok", resp.Checks["storage"])
		assert.Equal(t, "test", resp.Version)
	})
}
