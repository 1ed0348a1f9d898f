package loan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sundayekpa25-ai/WeThrift/internal/commission"
	"github.com/sundayekpa25-ai/WeThrift/internal/notification"
)

type Status = string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusDisbursed Status = "disbursed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

var (
	ErrNotApproved   = errors.New("loan is not approved")
	ErrInvalidStatus = errors.New("invalid repayment status")
)

type Loan struct {
	LoanID             string     `json:"loanId"             db:"loan_id"`
	CreatedAt          time.Time  `json:"createdAt"          db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt"          db:"updated_at"`
	UserID             string     `json:"userId"             db:"user_id"`
	GroupID            string     `json:"groupId"            db:"group_id"`
	Amount             int64      `json:"amount"             db:"amount"`
	Purpose            string     `json:"purpose"            db:"purpose"`
	InterestRate       float64    `json:"interestRate"       db:"interest_rate"`
	DurationMonths     int        `json:"durationMonths"     db:"duration_months"`
	Status             Status     `json:"status"             db:"status"`
	OutstandingBalance int64      `json:"outstandingBalance" db:"outstanding_balance"`
	RejectionReason    *string    `json:"rejectionReason"    db:"rejection_reason"`
	CommissionEarned   *int64     `json:"commissionEarned"   db:"commission_earned"`
	DisbursedAt        *time.Time `json:"disbursedAt"        db:"disbursed_at"`
	CompletedAt        *time.Time `json:"completedAt"        db:"completed_at"`
}

type Repayment struct {
	RepaymentID    string     `json:"repaymentId"    db:"repayment_id"`
	CreatedAt      time.Time  `json:"createdAt"      db:"created_at"`
	LoanID         string     `json:"loanId"         db:"loan_id"`
	UserID         string     `json:"userId"         db:"user_id"`
	Amount         int64      `json:"amount"         db:"amount"`
	Status         string     `json:"status"         db:"status"`
	TransactionRef string     `json:"transactionRef" db:"transaction_ref"`
	CompletedAt    *time.Time `json:"completedAt"    db:"completed_at"`
}

type Repository interface {
	Apply(ctx context.Context, arg applyRequest) (Loan, error)
	ListByUser(ctx context.Context, userID string) ([]Loan, error)
	Approve(ctx context.Context, loanID, approvedBy string) (Loan, error)
	Reject(ctx context.Context, loanID, rejectedBy, reason string) (Loan, error)
	Disburse(ctx context.Context, loanID, disbursedBy string) (Loan, error)
	MakeRepayment(ctx context.Context, arg repaymentRequest) (Repayment, error)
	UpdateRepaymentStatus(ctx context.Context, repaymentID, status string) (Repayment, error)
}

type repository struct {
	querier     *pgxpool.Pool
	commissions commission.Calculator
	notifier    notification.Sender
}

func NewRepository(
	querier *pgxpool.Pool,
	commissions commission.Calculator,
	notifier notification.Sender,
) Repository {
	return &repository{
		querier:     querier,
		commissions: commissions,
		notifier:    notifier,
	}
}

const loanColumns = `
	loan_id,
	created_at,
	updated_at,
	user_id,
	group_id,
	amount,
	purpose,
	interest_rate,
	duration_months,
	status,
	outstanding_balance,
	rejection_reason,
	commission_earned,
	disbursed_at,
	completed_at
`

func (r *repository) Apply(ctx context.Context, arg applyRequest) (Loan, error) {
	query := `
		INSERT INTO loans (
			user_id,
			group_id,
			amount,
			purpose,
			interest_rate,
			duration_months,
			status,
			outstanding_balance
		)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', 0)
		RETURNING` + loanColumns

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.UserID,
		arg.GroupID,
		arg.Amount,
		arg.Purpose,
		arg.InterestRate,
		arg.DurationMonths,
	)
	if err != nil {
		return Loan{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Loan])
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Loan, error) {
	query := `
		SELECT` + loanColumns + `
		FROM loans
		WHERE user_id = ($1)
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Loan])
}

func (r *repository) Approve(ctx context.Context, loanID, approvedBy string) (Loan, error) {
	query := `
		UPDATE loans
		SET status = 'approved', approved_by = ($2), approved_at = now(), updated_at = now()
		WHERE loan_id = ($1) AND status = 'pending'
		RETURNING` + loanColumns

	rows, err := r.querier.Query(ctx, query, loanID, approvedBy)
	if err != nil {
		return Loan{}, err
	}

	approved, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Loan])
	if err != nil {
		return Loan{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  approved.UserID,
		Title:   "Loan Approved",
		Message: fmt.Sprintf("Your loan application for ₦%d has been approved.", approved.Amount),
		Type:    notification.Success,
		Channel: notification.InApp,
	}); err != nil {
		return Loan{}, err
	}

	return approved, nil
}

func (r *repository) Reject(ctx context.Context, loanID, rejectedBy, reason string) (Loan, error) {
	query := `
		UPDATE loans
		SET status = 'rejected',
			rejected_by = ($2),
			rejection_reason = ($3),
			updated_at = now()
		WHERE loan_id = ($1) AND status = 'pending'
		RETURNING` + loanColumns

	rows, err := r.querier.Query(ctx, query, loanID, rejectedBy, reason)
	if err != nil {
		return Loan{}, err
	}

	rejected, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Loan])
	if err != nil {
		return Loan{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  rejected.UserID,
		Title:   "Loan Rejected",
		Message: fmt.Sprintf("Your loan application for ₦%d was rejected: %s", rejected.Amount, reason),
		Type:    notification.Warning,
		Channel: notification.InApp,
	}); err != nil {
		return Loan{}, err
	}

	return rejected, nil
}

func (r *repository) Disburse(ctx context.Context, loanID, disbursedBy string) (Loan, error) {
	tx, err := r.querier.Begin(ctx)
	if err != nil {
		return Loan{}, err
	}
	defer tx.Rollback(ctx)

	var (
		status       string
		amount       int64
		interestRate float64
	)

	row := tx.QueryRow(
		ctx,
		`SELECT status, amount, interest_rate FROM loans WHERE loan_id = ($1) FOR UPDATE`,
		loanID,
	)
	if err := row.Scan(&status, &amount, &interestRate); err != nil {
		return Loan{}, err
	}

	if status != StatusApproved {
		return Loan{}, ErrNotApproved
	}

	// Flat interest over the loan term; repayments work the balance
	// back down to zero.
	balance := amount + int64(math.Round(float64(amount)*interestRate/100))

	query := `
		UPDATE loans
		SET status = 'disbursed',
			disbursed_by = ($2),
			disbursed_at = now(),
			outstanding_balance = ($3),
			updated_at = now()
		WHERE loan_id = ($1)
		RETURNING` + loanColumns

	rows, err := tx.Query(ctx, query, loanID, disbursedBy, balance)
	if err != nil {
		return Loan{}, err
	}

	disbursed, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Loan])
	if err != nil {
		return Loan{}, err
	}

	calc, err := r.commissions.Calculate(ctx, commission.Params{
		ServiceType: commission.Loans,
		Amount:      disbursed.Amount,
		GroupID:     &disbursed.GroupID,
		UserID:      disbursed.UserID,
	})
	if err != nil {
		return Loan{}, err
	}

	if calc != nil {
		if _, err := tx.Exec(
			ctx,
			`UPDATE loans SET commission_earned = ($2) WHERE loan_id = ($1)`,
			loanID,
			calc.CommissionAmount,
		); err != nil {
			return Loan{}, err
		}

		disbursed.CommissionEarned = &calc.CommissionAmount
	}

	if err := tx.Commit(ctx); err != nil {
		return Loan{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  disbursed.UserID,
		Title:   "Loan Disbursed",
		Message: fmt.Sprintf("₦%d has been disbursed to your account.", disbursed.Amount),
		Type:    notification.Success,
		Channel: notification.InApp,
	}); err != nil {
		return Loan{}, err
	}

	return disbursed, nil
}

func (r *repository) MakeRepayment(ctx context.Context, arg repaymentRequest) (Repayment, error) {
	query := `
		INSERT INTO loan_repayments (loan_id, user_id, amount, status, transaction_ref)
		VALUES ($1, $2, $3, 'pending', $4)
		RETURNING
			repayment_id,
			created_at,
			loan_id,
			user_id,
			amount,
			status,
			transaction_ref,
			completed_at
	`

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.LoanID,
		arg.UserID,
		arg.Amount,
		repaymentRef(),
	)
	if err != nil {
		return Repayment{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Repayment])
}

func (r *repository) UpdateRepaymentStatus(
	ctx context.Context,
	repaymentID, status string,
) (Repayment, error) {
	switch status {
	case "pending", "completed", "failed":
	default:
		return Repayment{}, ErrInvalidStatus
	}

	query := `
		UPDATE loan_repayments
		SET status = ($2),
			completed_at = CASE WHEN ($2) = 'completed' THEN now() ELSE completed_at END
		WHERE repayment_id = ($1)
		RETURNING
			repayment_id,
			created_at,
			loan_id,
			user_id,
			amount,
			status,
			transaction_ref,
			completed_at
	`

	rows, err := r.querier.Query(ctx, query, repaymentID, status)
	if err != nil {
		return Repayment{}, err
	}

	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Repayment])
	if err != nil {
		return Repayment{}, err
	}

	if status == "completed" {
		if err := r.reduceLoanBalance(ctx, updated.LoanID, updated.Amount); err != nil {
			return Repayment{}, err
		}
	}

	return updated, nil
}

func (r *repository) reduceLoanBalance(ctx context.Context, loanID string, repaid int64) error {
	query := `
		UPDATE loans
		SET outstanding_balance = greatest(0, outstanding_balance - ($2)),
			status = CASE
				WHEN outstanding_balance - ($2) <= 0 THEN 'completed'
				ELSE 'active'
			END,
			completed_at = CASE
				WHEN outstanding_balance - ($2) <= 0 THEN now()
				ELSE completed_at
			END,
			updated_at = now()
		WHERE loan_id = ($1)
	`

	_, err := r.querier.Exec(ctx, query, loanID, repaid)

	return err
}

func repaymentRef() string {
	return fmt.Sprintf("RPY-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
