package savings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

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

type createProductRequest struct {
	GroupID        string      `json:"groupId"`
	Name           string      `json:"name"`
	Type           ProductType `json:"type"`
	TargetAmount   int64       `json:"targetAmount"`
	InterestRate   float64     `json:"interestRate"`
	DurationMonths int         `json:"durationMonths"`
	CreatedBy      string      `json:"createdBy"`
}

func (s *Server) CreateProduct(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data createProductRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("create savings product: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid savings product request.",
		}
	}

	switch data.Type {
	case TargetSavings, FixedSavings, TurnByTurn:
	default:
		return api.Response{
			Error:   fmt.Errorf("create savings product: unknown type %q", data.Type),
			Code:    http.StatusBadRequest,
			Message: "Unknown savings product type.",
		}
	}

	product, err := s.repository.CreateProduct(ctx, data, data.CreatedBy)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("create savings product: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to create savings product.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully created savings product.",
		Data:    product,
	}
}

func (s *Server) GetGroupProducts(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	groupID := r.PathValue("groupID")

	products, err := s.repository.ListGroupProducts(ctx, groupID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get group savings products: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get savings products.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched savings products.",
		Data:    products,
	}
}

type contributionRequest struct {
	UserID       string     `json:"userId"`
	GroupID      string     `json:"groupId"`
	ProductID    string     `json:"productId"`
	Amount       int64      `json:"amount"`
	ScheduledFor *time.Time `json:"scheduledFor"`
}

func (s *Server) MakeContribution(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data contributionRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("make contribution: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid contribution request.",
		}
	}

	if data.Amount <= 0 {
		return api.Response{
			Error:   fmt.Errorf("make contribution: non-positive amount"),
			Code:    http.StatusBadRequest,
			Message: "Contribution amount must be positive.",
		}
	}

	contribution, err := s.repository.MakeContribution(ctx, data)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("make contribution: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to make contribution.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully recorded contribution.",
		Data:    contribution,
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateContributionStatus(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	contributionID := r.PathValue("contributionID")

	var data updateStatusRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("update contribution: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid status update request.",
		}
	}

	contribution, err := s.repository.UpdateContributionStatus(ctx, contributionID, data.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return api.Response{
				Error:   fmt.Errorf("update contribution: %w", err),
				Code:    http.StatusBadRequest,
				Message: "Invalid contribution status.",
			}
		}

		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("update contribution: %w", err),
				Code:    http.StatusNotFound,
				Message: "Contribution not found.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("update contribution: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to update contribution.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully updated contribution.",
		Data:    contribution,
	}
}

func (s *Server) GetUserContributions(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := r.PathValue("userID")

	contributions, err := s.repository.ListUserContributions(ctx, userID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get user contributions: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get contributions.",
		}
	}

	total, err := s.repository.TotalSavings(ctx, userID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get total savings: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get contributions.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched contributions.",
		Data: map[string]any{
			"contributions": contributions,
			"totalSavings":  total,
		},
	}
}
