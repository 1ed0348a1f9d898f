package commission

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Params struct {
	ServiceType ServiceType
	Amount      int64
	GroupID     *string
	UserID      string
}

// Calculator is what the transaction services (savings, loans, escrow)
// depend on. A nil result with a nil error means no tier applies and no
// commission is charged.
type Calculator interface {
	Calculate(ctx context.Context, params Params) (*Calculation, error)
}

type Repository interface {
	Calculator

	CreateRate(ctx context.Context, arg createRateRequest, createdBy string) (Rate, error)
	ListRates(ctx context.Context, groupID *string, serviceType string) ([]Rate, error)
	DeactivateRate(ctx context.Context, rateID string) error
}

type repository struct {
	querier *pgxpool.Pool
}

func NewRepository(querier *pgxpool.Pool) Repository {
	return &repository{
		querier: querier,
	}
}

func (r *repository) CreateRate(
	ctx context.Context,
	arg createRateRequest,
	createdBy string,
) (Rate, error) {
	query := `
		INSERT INTO commission_rates (
			service_type,
			group_id,
			rate_percentage,
			minimum_amount,
			maximum_amount,
			created_by,
			is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING
			rate_id,
			service_type,
			group_id,
			rate_percentage,
			minimum_amount,
			maximum_amount,
			is_active
	`

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.ServiceType,
		arg.GroupID,
		arg.RatePercentage,
		arg.MinimumAmount,
		arg.MaximumAmount,
		createdBy,
	)
	if err != nil {
		return Rate{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Rate])
}

// ListRates returns active rates for a service type, group-specific
// rows alongside platform defaults, newest first.
func (r *repository) ListRates(
	ctx context.Context,
	groupID *string,
	serviceType string,
) ([]Rate, error) {
	query := `
		SELECT
			rate_id,
			service_type,
			group_id,
			rate_percentage,
			minimum_amount,
			maximum_amount,
			is_active
		FROM commission_rates
		WHERE is_active = true
			AND service_type = ($1)
			AND (group_id IS NULL OR group_id = ($2))
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, serviceType, groupID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Rate])
}

func (r *repository) DeactivateRate(ctx context.Context, rateID string) error {
	_, err := r.querier.Exec(
		ctx,
		`UPDATE commission_rates SET is_active = false WHERE rate_id = ($1)`,
		rateID,
	)

	return err
}

func (r *repository) Calculate(ctx context.Context, params Params) (*Calculation, error) {
	rates, err := r.ListRates(ctx, params.GroupID, params.ServiceType)
	if err != nil {
		return nil, err
	}

	rate, ok := pickRate(rates, params.GroupID, params.Amount)
	if !ok {
		return nil, nil
	}

	result := calculate(rate, params)

	return &result, nil
}

type createRateRequest struct {
	ServiceType    string  `json:"serviceType"`
	GroupID        *string `json:"groupId"`
	RatePercentage float64 `json:"ratePercentage"`
	MinimumAmount  int64   `json:"minimumAmount"`
	MaximumAmount  *int64  `json:"maximumAmount"`
}
