package escrow

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
	BuyerID     string  `json:"buyerId"`
	SellerID    string  `json:"sellerId"`
	GroupID     *string `json:"groupId"`
	Amount      int64   `json:"amount"`
	Description string  `json:"description"`
}

func (s *Server) CreateTransaction(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data createRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("create escrow: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid escrow request.",
		}
	}

	switch {
	case data.Amount <= 0:
		return api.Response{
			Error:   fmt.Errorf("create escrow: non-positive amount"),
			Code:    http.StatusBadRequest,
			Message: "Escrow amount must be positive.",
		}
	case data.BuyerID == data.SellerID:
		return api.Response{
			Error:   fmt.Errorf("create escrow: buyer and seller are the same user"),
			Code:    http.StatusBadRequest,
			Message: "Buyer and seller must be different users.",
		}
	}

	created, err := s.repository.Create(ctx, data)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("create escrow: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to create escrow transaction.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully created escrow transaction.",
		Data:    created,
	}
}

func (s *Server) GetUserTransactions(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := r.PathValue("userID")

	transactions, err := s.repository.ListByUser(ctx, userID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get escrow transactions: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get escrow transactions.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched escrow transactions.",
		Data:    transactions,
	}
}

type actionRequest struct {
	ActedBy          string `json:"actedBy"`
	PaymentReference string `json:"paymentReference"`
	Reason           string `json:"reason"`
}

func (s *Server) actionResponse(
	op string,
	updated Transaction,
	err error,
) api.Response {
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return api.Response{
				Error:   fmt.Errorf("%s: %w", op, err),
				Code:    http.StatusConflict,
				Message: "The escrow transaction is not in a state that allows this action.",
			}
		}

		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("%s: %w", op, err),
				Code:    http.StatusNotFound,
				Message: "Escrow transaction not found.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("%s: %w", op, err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to update escrow transaction.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully updated escrow transaction.",
		Data:    updated,
	}
}

func (s *Server) FundTransaction(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data actionRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("fund escrow: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid fund request.",
		}
	}

	updated, err := s.repository.Fund(ctx, r.PathValue("transactionID"), data.PaymentReference)

	return s.actionResponse("fund escrow", updated, err)
}

func (s *Server) ReleaseTransaction(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data actionRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("release escrow: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid release request.",
		}
	}

	updated, err := s.repository.Release(ctx, r.PathValue("transactionID"), data.ActedBy)

	return s.actionResponse("release escrow", updated, err)
}

func (s *Server) DisputeTransaction(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data actionRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("dispute escrow: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid dispute request.",
		}
	}

	if data.Reason == "" {
		return api.Response{
			Error:   fmt.Errorf("dispute escrow: missing reason"),
			Code:    http.StatusBadRequest,
			Message: "A dispute reason is required.",
		}
	}

	updated, err := s.repository.Dispute(ctx, r.PathValue("transactionID"), data.Reason, data.ActedBy)

	return s.actionResponse("dispute escrow", updated, err)
}

func (s *Server) CancelTransaction(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data actionRequest
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("cancel escrow: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid cancel request.",
		}
	}

	updated, err := s.repository.Cancel(ctx, r.PathValue("transactionID"), data.ActedBy)

	return s.actionResponse("cancel escrow", updated, err)
}
