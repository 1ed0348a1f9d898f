package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is what every handler returns. Code drives both the HTTP
// status and the success flag of the encoded envelope; Error is logged
// server-side and never leaks to the client.
type Response struct {
	Error   error
	Code    int
	Message string
	Data    any
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (res Response) Encode(w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Code)

	body := envelope{
		Success: res.Code < http.StatusBadRequest,
		Data:    res.Data,
	}

	if body.Success {
		body.Message = res.Message
	} else {
		body.Error = res.Message
	}

	return json.NewEncoder(w).Encode(body)
}

type HTTPHandler func(w http.ResponseWriter, r *http.Request) Response

func (fn HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res := fn(w, r)

	if res.Error != nil {
		slog.Error(res.Error.Error())
	}

	if err := res.Encode(w); err != nil {
		slog.Error(err.Error())
	}
}
