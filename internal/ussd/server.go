package ussd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sundayekpa25-ai/WeThrift/internal/api"
)

type Server struct {
	engine *Engine
}

func NewServer(engine *Engine) *Server {
	return &Server{engine: engine}
}

type ussdRequest struct {
	SessionID   string `json:"sessionId"`
	PhoneNumber string `json:"phoneNumber"`
	UserInput   string `json:"userInput"`
}

func (req *ussdRequest) validate() error {
	if req.SessionID == "" {
		return errors.New("session ID is required")
	}

	if !validPhone(stripSpaces(req.PhoneNumber)) {
		return errors.New("invalid Nigerian phone number")
	}

	if req.UserInput == "" {
		return errors.New("user input is required")
	}

	return nil
}

// HandleRequest is the gateway callback. Engine errors never surface
// here; a turn that goes wrong is reported to the subscriber inside
// the dialog itself.
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var req ussdRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return api.Response{
			Error:   err,
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
		}
	}

	if err := req.validate(); err != nil {
		return api.Response{
			Error:   err,
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	res := s.engine.Process(ctx, req.SessionID, stripSpaces(req.PhoneNumber), req.UserInput)

	return api.Response{
		Code: http.StatusOK,
		Data: res,
	}
}

// HandleHealth lets the USSD provider probe the service.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) api.Response {
	return api.Response{
		Code:    http.StatusOK,
		Message: "WeThrift USSD Service is running",
		Data:    map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)},
	}
}
