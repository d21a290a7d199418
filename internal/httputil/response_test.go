package httputil_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"institute-service/internal/apperrors"
	"institute-service/internal/httputil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperrors.Validation("course", "name", "is required"), http.StatusBadRequest},
		{"not found", apperrors.NotFound("course", 1), http.StatusNotFound},
		{"uniqueness", apperrors.Uniqueness("course", "name", nil), http.StatusConflict},
		{"ambiguous", apperrors.Ambiguous("student", "Ann", []int64{1, 2}), http.StatusConflict},
		{"restricted", apperrors.Restricted("course", "result", []int64{4}), http.StatusConflict},
		{"unavailable", apperrors.StoreUnavailable(errors.New("down")), http.StatusServiceUnavailable},
		{"wrapped", fmt.Errorf("ctx: %w", apperrors.NotFound("course", 1)), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, httputil.StatusFor(tt.err))
		})
	}
}

func TestRespondWithAppError(t *testing.T) {
	t.Run("ambiguous carries candidates", func(t *testing.T) {
		w := httptest.NewRecorder()
		httputil.RespondWithAppError(w, apperrors.Ambiguous("student", "Ann", []int64{3, 9}))

		assert.Equal(t, http.StatusConflict, w.Code)
		var resp httputil.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "ambiguous_reference", resp.Error)
		assert.Equal(t, []int64{3, 9}, resp.IDs)
	})

	t.Run("internal errors hide text", func(t *testing.T) {
		w := httptest.NewRecorder()
		httputil.RespondWithAppError(w, errors.New("secret dsn"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret")
	})
}
