package escrow

import (
	"context"
	"errors"
	"fmt"
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
	StatusFunded    Status = "funded"
	StatusReleased  Status = "released"
	StatusDisputed  Status = "disputed"
	StatusCancelled Status = "cancelled"
)

// ErrInvalidTransition is returned when a transaction is not in a
// state the requested operation accepts.
var ErrInvalidTransition = errors.New("invalid escrow state transition")

type Transaction struct {
	TransactionID    string     `json:"transactionId"    db:"transaction_id"`
	CreatedAt        time.Time  `json:"createdAt"        db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt"        db:"updated_at"`
	BuyerID          string     `json:"buyerId"          db:"buyer_id"`
	SellerID         string     `json:"sellerId"         db:"seller_id"`
	GroupID          *string    `json:"groupId"          db:"group_id"`
	Amount           int64      `json:"amount"           db:"amount"`
	Description      string     `json:"description"      db:"description"`
	Status           Status     `json:"status"           db:"status"`
	TransactionRef   string     `json:"transactionRef"   db:"transaction_ref"`
	PaymentReference *string    `json:"paymentReference" db:"payment_reference"`
	DisputeReason    *string    `json:"disputeReason"    db:"dispute_reason"`
	CommissionEarned *int64     `json:"commissionEarned" db:"commission_earned"`
	ReleasedAt       *time.Time `json:"releasedAt"       db:"released_at"`
}

type Repository interface {
	Create(ctx context.Context, arg createRequest) (Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]Transaction, error)
	Fund(ctx context.Context, transactionID, paymentReference string) (Transaction, error)
	Release(ctx context.Context, transactionID, releasedBy string) (Transaction, error)
	Dispute(ctx context.Context, transactionID, reason, disputedBy string) (Transaction, error)
	Cancel(ctx context.Context, transactionID, cancelledBy string) (Transaction, error)
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

const transactionColumns = `
	transaction_id,
	created_at,
	updated_at,
	buyer_id,
	seller_id,
	group_id,
	amount,
	description,
	status,
	transaction_ref,
	payment_reference,
	dispute_reason,
	commission_earned,
	released_at
`

func (r *repository) Create(ctx context.Context, arg createRequest) (Transaction, error) {
	query := `
		INSERT INTO escrow_transactions (
			buyer_id,
			seller_id,
			group_id,
			amount,
			description,
			status,
			transaction_ref
		)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6)
		RETURNING` + transactionColumns

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.BuyerID,
		arg.SellerID,
		arg.GroupID,
		arg.Amount,
		arg.Description,
		escrowRef(),
	)
	if err != nil {
		return Transaction{}, err
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Transaction])
	if err != nil {
		return Transaction{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  created.SellerID,
		Title:   "New Escrow Transaction",
		Message: fmt.Sprintf("You have a new escrow transaction for ₦%d.", created.Amount),
		Type:    notification.Info,
		Channel: notification.InApp,
	}); err != nil {
		return Transaction{}, err
	}

	return created, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Transaction, error) {
	query := `
		SELECT` + transactionColumns + `
		FROM escrow_transactions
		WHERE buyer_id = ($1) OR seller_id = ($1)
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Transaction])
}

// transition moves a transaction between states, enforcing the allowed
// source states in the WHERE clause. A zero-row update on an existing
// transaction is an invalid transition.
func (r *repository) transition(
	ctx context.Context,
	transactionID string,
	set string,
	from []string,
	args ...any,
) (Transaction, error) {
	query := fmt.Sprintf(`
		UPDATE escrow_transactions
		SET %s, updated_at = now()
		WHERE transaction_id = ($1) AND status = any($2)
		RETURNING`+transactionColumns, set)

	rows, err := r.querier.Query(
		ctx,
		query,
		append([]any{transactionID, from}, args...)...,
	)
	if err != nil {
		return Transaction{}, err
	}

	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Transaction])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool

			row := r.querier.QueryRow(
				ctx,
				`SELECT exists(SELECT 1 FROM escrow_transactions WHERE transaction_id = ($1))`,
				transactionID,
			)
			if scanErr := row.Scan(&exists); scanErr == nil && exists {
				return Transaction{}, ErrInvalidTransition
			}
		}

		return Transaction{}, err
	}

	return updated, nil
}

func (r *repository) Fund(
	ctx context.Context,
	transactionID, paymentReference string,
) (Transaction, error) {
	funded, err := r.transition(
		ctx,
		transactionID,
		`status = 'funded', payment_reference = ($3)`,
		[]string{StatusPending},
		paymentReference,
	)
	if err != nil {
		return Transaction{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  funded.SellerID,
		Title:   "Escrow Funded",
		Message: fmt.Sprintf("Escrow %s has been funded with ₦%d.", funded.TransactionRef, funded.Amount),
		Type:    notification.Info,
		Channel: notification.InApp,
	}); err != nil {
		return Transaction{}, err
	}

	return funded, nil
}

func (r *repository) Release(
	ctx context.Context,
	transactionID, releasedBy string,
) (Transaction, error) {
	released, err := r.transition(
		ctx,
		transactionID,
		`status = 'released', released_by = ($3), released_at = now()`,
		[]string{StatusFunded},
		releasedBy,
	)
	if err != nil {
		return Transaction{}, err
	}

	calc, err := r.commissions.Calculate(ctx, commission.Params{
		ServiceType: commission.Escrow,
		Amount:      released.Amount,
		GroupID:     released.GroupID,
		UserID:      released.BuyerID,
	})
	if err != nil {
		return Transaction{}, err
	}

	if calc != nil {
		if _, err := r.querier.Exec(
			ctx,
			`UPDATE escrow_transactions SET commission_earned = ($2) WHERE transaction_id = ($1)`,
			transactionID,
			calc.CommissionAmount,
		); err != nil {
			return Transaction{}, err
		}

		released.CommissionEarned = &calc.CommissionAmount
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  released.SellerID,
		Title:   "Escrow Released",
		Message: fmt.Sprintf("₦%d from escrow %s has been released to you.", released.Amount, released.TransactionRef),
		Type:    notification.Success,
		Channel: notification.InApp,
	}); err != nil {
		return Transaction{}, err
	}

	return released, nil
}

func (r *repository) Dispute(
	ctx context.Context,
	transactionID, reason, disputedBy string,
) (Transaction, error) {
	disputed, err := r.transition(
		ctx,
		transactionID,
		`status = 'disputed', dispute_reason = ($3), disputed_by = ($4)`,
		[]string{StatusPending, StatusFunded},
		reason,
		disputedBy,
	)
	if err != nil {
		return Transaction{}, err
	}

	for _, party := range []string{disputed.BuyerID, disputed.SellerID} {
		if party == disputedBy {
			continue
		}

		if _, err := r.notifier.Send(ctx, notification.SendRequest{
			UserID:  party,
			Title:   "Escrow Disputed",
			Message: fmt.Sprintf("Escrow %s has been disputed: %s", disputed.TransactionRef, reason),
			Type:    notification.Warning,
			Channel: notification.InApp,
		}); err != nil {
			return Transaction{}, err
		}
	}

	return disputed, nil
}

func (r *repository) Cancel(
	ctx context.Context,
	transactionID, cancelledBy string,
) (Transaction, error) {
	cancelled, err := r.transition(
		ctx,
		transactionID,
		`status = 'cancelled', cancelled_by = ($3)`,
		[]string{StatusPending, StatusFunded},
		cancelledBy,
	)
	if err != nil {
		return Transaction{}, err
	}

	// Both sides need to know the deal is off.
	requests := make([]notification.SendRequest, 0, 2)
	for _, party := range []string{cancelled.BuyerID, cancelled.SellerID} {
		requests = append(requests, notification.SendRequest{
			UserID:  party,
			Title:   "Escrow Cancelled",
			Message: fmt.Sprintf("Escrow %s has been cancelled.", cancelled.TransactionRef),
			Type:    notification.Warning,
			Channel: notification.InApp,
		})
	}

	if err := r.notifier.SendBulk(ctx, requests); err != nil {
		return Transaction{}, err
	}

	return cancelled, nil
}

func escrowRef() string {
	return fmt.Sprintf("ESC-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
