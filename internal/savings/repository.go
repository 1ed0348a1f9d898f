package savings

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

type ProductType = string

const (
	TargetSavings ProductType = "target_savings"
	FixedSavings  ProductType = "fixed_savings"
	TurnByTurn    ProductType = "turn_by_turn"
)

type ContributionStatus = string

const (
	StatusPending   ContributionStatus = "pending"
	StatusCompleted ContributionStatus = "completed"
	StatusFailed    ContributionStatus = "failed"
	StatusCancelled ContributionStatus = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid contribution status")

type Product struct {
	ProductID      string      `json:"productId"      db:"product_id"`
	CreatedAt      time.Time   `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt"      db:"updated_at"`
	GroupID        string      `json:"groupId"        db:"group_id"`
	Name           string      `json:"name"           db:"name"`
	Type           ProductType `json:"type"           db:"type"`
	TargetAmount   int64       `json:"targetAmount"   db:"target_amount"`
	CurrentAmount  int64       `json:"currentAmount"  db:"current_amount"`
	InterestRate   float64     `json:"interestRate"   db:"interest_rate"`
	DurationMonths int         `json:"durationMonths" db:"duration_months"`
	CreatedBy      string      `json:"createdBy"      db:"created_by"`
	IsActive       bool        `json:"isActive"       db:"is_active"`
}

type Contribution struct {
	ContributionID   string     `json:"contributionId"   db:"contribution_id"`
	CreatedAt        time.Time  `json:"createdAt"        db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt"        db:"updated_at"`
	UserID           string     `json:"userId"           db:"user_id"`
	GroupID          string     `json:"groupId"          db:"group_id"`
	ProductID        string     `json:"productId"        db:"product_id"`
	Amount           int64      `json:"amount"           db:"amount"`
	Status           string     `json:"status"           db:"status"`
	ContributionType string     `json:"contributionType" db:"contribution_type"`
	TransactionRef   string     `json:"transactionRef"   db:"transaction_ref"`
	CommissionEarned *int64     `json:"commissionEarned" db:"commission_earned"`
	ScheduledFor     *time.Time `json:"scheduledFor"     db:"scheduled_for"`
	CompletedAt      *time.Time `json:"completedAt"      db:"completed_at"`
}

type Repository interface {
	CreateProduct(ctx context.Context, arg createProductRequest, createdBy string) (Product, error)
	ListGroupProducts(ctx context.Context, groupID string) ([]Product, error)
	MakeContribution(ctx context.Context, arg contributionRequest) (Contribution, error)
	UpdateContributionStatus(ctx context.Context, contributionID, status string) (Contribution, error)
	ListUserContributions(ctx context.Context, userID string) ([]Contribution, error)
	TotalSavings(ctx context.Context, userID string) (int64, error)
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

const productColumns = `
	product_id,
	created_at,
	updated_at,
	group_id,
	name,
	type,
	target_amount,
	current_amount,
	interest_rate,
	duration_months,
	created_by,
	is_active
`

func (r *repository) CreateProduct(
	ctx context.Context,
	arg createProductRequest,
	createdBy string,
) (Product, error) {
	query := `
		INSERT INTO savings_products (
			group_id,
			name,
			type,
			target_amount,
			current_amount,
			interest_rate,
			duration_months,
			created_by,
			is_active
		)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, true)
		RETURNING` + productColumns

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.GroupID,
		arg.Name,
		arg.Type,
		arg.TargetAmount,
		arg.InterestRate,
		arg.DurationMonths,
		createdBy,
	)
	if err != nil {
		return Product{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Product])
}

func (r *repository) ListGroupProducts(ctx context.Context, groupID string) ([]Product, error) {
	query := `
		SELECT` + productColumns + `
		FROM savings_products
		WHERE group_id = ($1) AND is_active = true
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Product])
}

const contributionColumns = `
	contribution_id,
	created_at,
	updated_at,
	user_id,
	group_id,
	product_id,
	amount,
	status,
	contribution_type,
	transaction_ref,
	commission_earned,
	scheduled_for,
	completed_at
`

func (r *repository) MakeContribution(
	ctx context.Context,
	arg contributionRequest,
) (Contribution, error) {
	contributionType := "one_time"
	if arg.ScheduledFor != nil {
		contributionType = "scheduled"
	}

	query := `
		INSERT INTO contributions (
			user_id,
			group_id,
			product_id,
			amount,
			status,
			contribution_type,
			transaction_ref,
			scheduled_for
		)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7)
		RETURNING` + contributionColumns

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.UserID,
		arg.GroupID,
		arg.ProductID,
		arg.Amount,
		contributionType,
		transactionRef(),
		arg.ScheduledFor,
	)
	if err != nil {
		return Contribution{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Contribution])
}

func (r *repository) UpdateContributionStatus(
	ctx context.Context,
	contributionID, status string,
) (Contribution, error) {
	switch status {
	case StatusPending, StatusCompleted, StatusFailed, StatusCancelled:
	default:
		return Contribution{}, ErrInvalidStatus
	}

	rows, err := r.querier.Query(ctx, statusUpdateQuery(status), contributionID, status)
	if err != nil {
		return Contribution{}, err
	}

	updated, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Contribution])
	if err != nil {
		// A completed contribution stays completed. Report the stored
		// row instead of running the completion side effects again.
		if errors.Is(err, pgx.ErrNoRows) && status == StatusCompleted {
			return r.getContribution(ctx, contributionID)
		}

		return Contribution{}, err
	}

	if status != StatusCompleted {
		return updated, nil
	}

	if _, err := r.querier.Exec(
		ctx,
		`UPDATE savings_products
		SET current_amount = current_amount + ($2), updated_at = now()
		WHERE product_id = ($1)`,
		updated.ProductID,
		updated.Amount,
	); err != nil {
		return Contribution{}, err
	}

	if err := r.applyCommission(ctx, &updated); err != nil {
		return Contribution{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  updated.UserID,
		Title:   "Payment Confirmed",
		Message: fmt.Sprintf("Your contribution of ₦%d (%s) was completed.", updated.Amount, updated.TransactionRef),
		Type:    notification.Success,
		Channel: notification.InApp,
	}); err != nil {
		return Contribution{}, err
	}

	return updated, nil
}

// statusUpdateQuery builds the status transition. Completing skips
// rows that are already completed, so a replayed payment webhook
// cannot double-count the product balance or the commission.
func statusUpdateQuery(status string) string {
	query := `
		UPDATE contributions
		SET status = ($2),
			updated_at = now(),
			completed_at = CASE WHEN ($2) = 'completed' THEN now() ELSE completed_at END
		WHERE contribution_id = ($1)`

	if status == StatusCompleted {
		query += ` AND status <> 'completed'`
	}

	return query + `
		RETURNING` + contributionColumns
}

func (r *repository) getContribution(ctx context.Context, contributionID string) (Contribution, error) {
	query := `
		SELECT` + contributionColumns + `
		FROM contributions
		WHERE contribution_id = ($1)
	`

	rows, err := r.querier.Query(ctx, query, contributionID)
	if err != nil {
		return Contribution{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Contribution])
}

func (r *repository) applyCommission(ctx context.Context, contrib *Contribution) error {
	calc, err := r.commissions.Calculate(ctx, commission.Params{
		ServiceType: commission.Contributions,
		Amount:      contrib.Amount,
		GroupID:     &contrib.GroupID,
		UserID:      contrib.UserID,
	})
	if err != nil {
		return err
	}

	if calc == nil {
		return nil
	}

	if _, err := r.querier.Exec(
		ctx,
		`UPDATE contributions SET commission_earned = ($2) WHERE contribution_id = ($1)`,
		contrib.ContributionID,
		calc.CommissionAmount,
	); err != nil {
		return err
	}

	if _, err := r.querier.Exec(
		ctx,
		`UPDATE group_members
		SET commission_earned = commission_earned + ($3)
		WHERE group_id = ($1) AND user_id = ($2)`,
		contrib.GroupID,
		contrib.UserID,
		calc.CommissionAmount,
	); err != nil {
		return err
	}

	contrib.CommissionEarned = &calc.CommissionAmount

	return nil
}

func (r *repository) ListUserContributions(
	ctx context.Context,
	userID string,
) ([]Contribution, error) {
	query := `
		SELECT` + contributionColumns + `
		FROM contributions
		WHERE user_id = ($1)
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Contribution])
}

func (r *repository) TotalSavings(ctx context.Context, userID string) (int64, error) {
	var total int64

	row := r.querier.QueryRow(
		ctx,
		`SELECT coalesce(sum(amount), 0)
		FROM contributions
		WHERE user_id = ($1) AND status = 'completed'`,
		userID,
	)
	if err := row.Scan(&total); err != nil {
		return 0, err
	}

	return total, nil
}

func transactionRef() string {
	return fmt.Sprintf("TXN-%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}
