package complaint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/sundayekpa25-ai/WeThrift/internal/api"
)

type Server struct {
	repository Repository
}

func NewServer(repository Repository) *Server {
	return &Server{
		repository: repository,
	}
}

type createRequest struct {
	UserID      string  `json:"userId"`
	GroupID     *string `json:"groupId"`
	Type        Type    `json:"type"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Priority    string  `json:"priority"`
}

func (arg createRequest) validate() error {
	switch arg.Type {
	case Transaction, Service, Technical, Dispute, Other:
	default:
		return ErrUnknownType
	}

	switch arg.Priority {
	case Low, Medium, High, Urgent:
	default:
		return ErrUnknownPriority
	}

	if arg.Title == "" || arg.Description == "" {
		return errors.New("title and description are required")
	}

	return nil
}

func (s *Server) SubmitComplaint(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data createRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("submit complaint: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid complaint request.",
		}
	}

	if err := data.validate(); err != nil {
		return api.Response{
			Error:   fmt.Errorf("submit complaint: %w", err),
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	created, err := s.repository.Create(ctx, data)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("submit complaint: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to submit complaint.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully submitted complaint.",
		Data:    created,
	}
}

func (s *Server) GetUserComplaints(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := r.PathValue("userID")

	complaints, err := s.repository.ListByUser(ctx, userID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get user complaints: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get complaints.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched complaints.",
		Data:    complaints,
	}
}

type updateRequest struct {
	AssignedTo string `json:"assignedTo"`
	Resolution string `json:"resolution"`
}

func (s *Server) AssignComplaint(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data updateRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("assign complaint: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid assignment request.",
		}
	}

	updated, err := s.repository.Assign(ctx, r.PathValue("complaintID"), data.AssignedTo)
	if err != nil {
		return s.updateError("assign complaint", err)
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully assigned complaint.",
		Data:    updated,
	}
}

func (s *Server) ResolveComplaint(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data updateRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("resolve complaint: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid resolution request.",
		}
	}

	updated, err := s.repository.Resolve(ctx, r.PathValue("complaintID"), data.Resolution)
	if err != nil {
		return s.updateError("resolve complaint", err)
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully resolved complaint.",
		Data:    updated,
	}
}

func (s *Server) CloseComplaint(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updated, err := s.repository.Close(ctx, r.PathValue("complaintID"))
	if err != nil {
		return s.updateError("close complaint", err)
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully closed complaint.",
		Data:    updated,
	}
}

func (s *Server) updateError(op string, err error) api.Response {
	if errors.Is(err, pgx.ErrNoRows) {
		return api.Response{
			Error:   fmt.Errorf("%s: %w", op, err),
			Code:    http.StatusNotFound,
			Message: "Complaint not found.",
		}
	}

	return api.Response{
		Error:   fmt.Errorf("%s: %w", op, err),
		Code:    http.StatusInternalServerError,
		Message: "Failed to update complaint.",
	}
}
