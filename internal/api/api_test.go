package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSuccess(t *testing.T) {
	rec := httptest.NewRecorder()

	res := Response{
		Code:    http.StatusCreated,
		Message: "Created.",
		Data:    map[string]string{"id": "abc"},
	}

	require.NoError(t, res.Encode(rec))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
		Error   string            `json:"error"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "Created.", got.Message)
	assert.Equal(t, "abc", got.Data["id"])
	assert.Empty(t, got.Error)
}

func TestEncodeFailureMovesMessageToError(t *testing.T) {
	rec := httptest.NewRecorder()

	res := Response{
		Error:   errors.New("pq: connection refused"),
		Code:    http.StatusConflict,
		Message: "Email already registered.",
	}

	require.NoError(t, res.Encode(rec))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var got struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.Empty(t, got.Message)
	// The internal error is logged, never encoded.
	assert.Equal(t, "Email already registered.", got.Error)
}

func TestHTTPHandlerServesResponse(t *testing.T) {
	handler := HTTPHandler(func(w http.ResponseWriter, r *http.Request) Response {
		return Response{Code: http.StatusOK, Message: "ok"}
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
