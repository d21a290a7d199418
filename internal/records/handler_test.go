package records_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"institute-service/internal/httputil"
	"institute-service/internal/integrity"
	"institute-service/internal/logger"
	"institute-service/internal/records"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	r, _ := setup(t)
	router := chi.NewRouter()
	router.Route("/api", func(api chi.Router) {
		records.NewHandler(r, logger.Discard()).RegisterRoutes(api)
	})
	return router
}

func do(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHandler(t *testing.T) {
	router := newRouter(t)

	t.Run("CreateCourse", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/courses", map[string]any{"name": "Python", "duration": "3 months", "price": 1500})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp records.CreatedResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, int64(1), resp.ID)
	})

	t.Run("CreateStudentByLabel", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/students", map[string]any{"name": "Amin", "course": "Python"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = do(t, router, http.MethodGet, "/api/students/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var view records.View
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.Equal(t, "Amin", view.Attributes["name"])
		require.NotNil(t, view.References["course"].Label)
		assert.Equal(t, "Python", *view.References["course"].Label)
	})

	t.Run("DuplicateName_Conflict", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/courses", map[string]any{"name": "Python", "duration": "1 month"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "uniqueness_violation", decodeError(t, w).Error)
	})

	t.Run("UnknownLabel_NotFound", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/students", map[string]any{"name": "Rafi", "course": "Haskell"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("AmbiguousLabel_Conflict", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/students", map[string]any{"name": "Amin"}).Code)

		w := do(t, router, http.MethodGet, "/api/students/resolve?label=Amin", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.ElementsMatch(t, []int64{1, 2}, decodeError(t, w).IDs)
	})

	t.Run("ResolveAndLabel", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/courses/resolve?label=Python", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"label":"Python"}`, w.Body.String())

		w = do(t, router, http.MethodGet, "/api/courses/1/label", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":1,"label":"Python"}`, w.Body.String())
	})

	t.Run("PatchCourse", func(t *testing.T) {
		w := do(t, router, http.MethodPatch, "/api/courses/1", map[string]any{"price": nil})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var view records.View
		require.NoError(t, json.NewDecoder(w.Body).Decode(&view))
		assert.Nil(t, view.Attributes["price"])
		assert.Equal(t, "3 months", view.Attributes["duration"])
	})

	t.Run("ListWithQuery", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/students?order_by=name&desc=true&course_id=1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var views []records.View
		require.NoError(t, json.NewDecoder(w.Body).Decode(&views))
		require.Len(t, views, 1)
		assert.Equal(t, int64(1), views[0].ID)
	})

	t.Run("ListUnknownQuery_BadRequest", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/courses?colour=blue", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("DeleteCourse_ReportsNullified", func(t *testing.T) {
		w := do(t, router, http.MethodDelete, "/api/courses/1", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report integrity.Report
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.Equal(t, 1, report.Nullified["students.course_id"])

		assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/courses/1", nil).Code)
	})

	t.Run("BadPaths", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/departments", nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/courses/abc", nil).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodGet, "/api/courses/0", nil).Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/courses", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
