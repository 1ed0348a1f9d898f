package ussd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayekpa25-ai/WeThrift/internal/api"
)

func newTestHandler() http.Handler {
	engine, _ := newTestEngine(Services{})
	server := NewServer(engine)

	mux := http.NewServeMux()
	mux.Handle("POST /api/ussd", api.HTTPHandler(server.HandleRequest))
	mux.Handle("GET /api/ussd", api.HTTPHandler(server.HandleHealth))

	return mux
}

func TestHandleRequest(t *testing.T) {
	handler := newTestHandler()

	body := `{"sessionId":"abc123","phoneNumber":"08031234567","userInput":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ussd", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Success bool     `json:"success"`
		Data    Response `json:"data"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, welcomeText, got.Data.Message)
	assert.Equal(t, MenuAuth, got.Data.NextMenu)
	assert.False(t, got.Data.ShouldEnd)
}

func TestHandleRequestValidation(t *testing.T) {
	handler := newTestHandler()

	tests := []struct {
		name string
		body string
	}{
		{"missing session id", `{"phoneNumber":"08031234567","userInput":"1"}`},
		{"bad phone", `{"sessionId":"abc123","phoneNumber":"12345","userInput":"1"}`},
		{"missing input", `{"sessionId":"abc123","phoneNumber":"08031234567"}`},
		{"malformed json", `{"sessionId":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/ussd", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var got struct {
				Success bool   `json:"success"`
				Error   string `json:"error"`
			}

			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.False(t, got.Success)
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/ussd", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "WeThrift USSD Service is running", got.Message)
}
