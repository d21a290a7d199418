package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"institute-service/internal/health"
	"institute-service/internal/logger"
	"institute-service/internal/metrics"
	"institute-service/internal/store"
	"institute-service/testing/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	database := testdb.NewSQLite(t)
	st := store.New(database, metrics.NewMock())

	router := chi.NewRouter()
	health.NewHandler(st, logger.Discard()).RegisterRoutes(router)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	t.Run("Health", func(t *testing.T) {
		w := get("/health")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("Ready", func(t *testing.T) {
		w := get("/ready")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
	})

	t.Run("NotReady_StoreClosed", func(t *testing.T) {
		require.NoError(t, database.Close())

		w := get("/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, http.StatusOK, get("/health").Code)
	})
}
