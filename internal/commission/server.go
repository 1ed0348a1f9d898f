package commission

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sundayekpa25-ai/WeThrift/internal/api"
	"github.com/sundayekpa25-ai/WeThrift/internal/user"
)

type Server struct {
	repository Repository
}

func NewServer(repository Repository) *Server {
	return &Server{
		repository: repository,
	}
}

func (s *Server) CreateRate(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data createRateRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("create commission rate: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid commission rate request.",
		}
	}

	if data.RatePercentage <= 0 || data.RatePercentage > 100 {
		return api.Response{
			Error:   fmt.Errorf("create commission rate: percentage out of range"),
			Code:    http.StatusBadRequest,
			Message: "Rate percentage must be between 0 and 100.",
		}
	}

	createdBy, ok := user.FromContext(ctx)
	if !ok {
		return api.Response{
			Error:   fmt.Errorf("create commission rate: no authenticated user"),
			Code:    http.StatusUnauthorized,
			Message: "Unauthorized",
		}
	}

	rate, err := s.repository.CreateRate(ctx, data, createdBy)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("create commission rate: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to create commission rate.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully created commission rate.",
		Data:    rate,
	}
}

func (s *Server) GetRates(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	serviceType := r.URL.Query().Get("serviceType")
	if serviceType == "" {
		serviceType = General
	}

	var groupID *string
	if v := r.URL.Query().Get("groupId"); v != "" {
		groupID = &v
	}

	rates, err := s.repository.ListRates(ctx, groupID, serviceType)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get commission rates: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get commission rates.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched commission rates.",
		Data:    rates,
	}
}

func (s *Server) DeactivateRate(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := s.repository.DeactivateRate(ctx, r.PathValue("rateID")); err != nil {
		return api.Response{
			Error:   fmt.Errorf("deactivate commission rate: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to deactivate commission rate.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully deactivated commission rate.",
	}
}
