package loan

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

type applyRequest struct {
	UserID         string  `json:"userId"`
	GroupID        string  `json:"groupId"`
	Amount         int64   `json:"amount"`
	Purpose        string  `json:"purpose"`
	InterestRate   float64 `json:"interestRate"`
	DurationMonths int     `json:"durationMonths"`
}

func (s *Server) Apply(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data applyRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("apply for loan: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid loan application.",
		}
	}

	if data.Amount <= 0 || data.DurationMonths <= 0 {
		return api.Response{
			Error:   fmt.Errorf("apply for loan: non-positive amount or duration"),
			Code:    http.StatusBadRequest,
			Message: "Loan amount and duration must be positive.",
		}
	}

	created, err := s.repository.Apply(ctx, data)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("apply for loan: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to submit loan application.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully submitted loan application.",
		Data:    created,
	}
}

func (s *Server) GetUserLoans(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := r.PathValue("userID")

	loans, err := s.repository.ListByUser(ctx, userID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get user loans: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get loans.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched loans.",
		Data:    loans,
	}
}

type decisionRequest struct {
	DecidedBy string `json:"decidedBy"`
	Reason    string `json:"reason"`
}

func (s *Server) ApproveLoan(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	loanID := r.PathValue("loanID")

	var data decisionRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("approve loan: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid approval request.",
		}
	}

	approved, err := s.repository.Approve(ctx, loanID, data.DecidedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("approve loan: %w", err),
				Code:    http.StatusNotFound,
				Message: "No pending loan found.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("approve loan: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to approve loan.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully approved loan.",
		Data:    approved,
	}
}

func (s *Server) RejectLoan(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	loanID := r.PathValue("loanID")

	var data decisionRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("reject loan: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid rejection request.",
		}
	}

	rejected, err := s.repository.Reject(ctx, loanID, data.DecidedBy, data.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("reject loan: %w", err),
				Code:    http.StatusNotFound,
				Message: "No pending loan found.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("reject loan: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to reject loan.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully rejected loan.",
		Data:    rejected,
	}
}

func (s *Server) DisburseLoan(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	loanID := r.PathValue("loanID")

	var data decisionRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("disburse loan: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid disbursement request.",
		}
	}

	disbursed, err := s.repository.Disburse(ctx, loanID, data.DecidedBy)
	if err != nil {
		if errors.Is(err, ErrNotApproved) {
			return api.Response{
				Error:   fmt.Errorf("disburse loan: %w", err),
				Code:    http.StatusConflict,
				Message: "Only approved loans can be disbursed.",
			}
		}

		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("disburse loan: %w", err),
				Code:    http.StatusNotFound,
				Message: "Loan not found.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("disburse loan: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to disburse loan.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully disbursed loan.",
		Data:    disbursed,
	}
}

type repaymentRequest struct {
	LoanID string `json:"loanId"`
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
}

func (s *Server) MakeRepayment(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data repaymentRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("make repayment: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid repayment request.",
		}
	}

	if data.Amount <= 0 {
		return api.Response{
			Error:   fmt.Errorf("make repayment: non-positive amount"),
			Code:    http.StatusBadRequest,
			Message: "Repayment amount must be positive.",
		}
	}

	repayment, err := s.repository.MakeRepayment(ctx, data)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("make repayment: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to record repayment.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully recorded repayment.",
		Data:    repayment,
	}
}

type repaymentStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateRepaymentStatus(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	repaymentID := r.PathValue("repaymentID")

	var data repaymentStatusRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("update repayment status: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid status request.",
		}
	}

	repayment, err := s.repository.UpdateRepaymentStatus(ctx, repaymentID, data.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			return api.Response{
				Error:   fmt.Errorf("update repayment status: %w", err),
				Code:    http.StatusBadRequest,
				Message: "Unknown repayment status.",
			}
		}

		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("update repayment status: %w", err),
				Code:    http.StatusNotFound,
				Message: "Repayment not found.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("update repayment status: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to update repayment.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully updated repayment.",
		Data:    repayment,
	}
}
