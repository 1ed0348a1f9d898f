package commission

import "math"

type ServiceType = string

const (
	Savings       ServiceType = "savings"
	Loans         ServiceType = "loans"
	Contributions ServiceType = "contributions"
	Escrow        ServiceType = "escrow"
	General       ServiceType = "general"
)

// Rate is one row of the commission tier table. A nil GroupID marks a
// platform-wide default; group-specific rates take precedence.
type Rate struct {
	RateID         string  `json:"rateId"         db:"rate_id"`
	ServiceType    string  `json:"serviceType"    db:"service_type"`
	GroupID        *string `json:"groupId"        db:"group_id"`
	RatePercentage float64 `json:"ratePercentage" db:"rate_percentage"`
	MinimumAmount  int64   `json:"minimumAmount"  db:"minimum_amount"`
	MaximumAmount  *int64  `json:"maximumAmount"  db:"maximum_amount"`
	IsActive       bool    `json:"isActive"       db:"is_active"`
}

func (rate Rate) covers(amount int64) bool {
	if amount < rate.MinimumAmount {
		return false
	}

	return rate.MaximumAmount == nil || amount <= *rate.MaximumAmount
}

type Calculation struct {
	ServiceType      string  `json:"serviceType"`
	Amount           int64   `json:"amount"`
	RatePercentage   float64 `json:"ratePercentage"`
	CommissionAmount int64   `json:"commissionAmount"`
	GroupID          *string `json:"groupId,omitempty"`
	UserID           string  `json:"userId,omitempty"`
}

// pickRate selects the most specific applicable rate: a group-specific
// tier covering the amount wins over a platform default.
func pickRate(rates []Rate, groupID *string, amount int64) (Rate, bool) {
	if groupID != nil {
		for _, rate := range rates {
			if rate.GroupID != nil && *rate.GroupID == *groupID && rate.covers(amount) {
				return rate, true
			}
		}
	}

	for _, rate := range rates {
		if rate.GroupID == nil && rate.covers(amount) {
			return rate, true
		}
	}

	return Rate{}, false
}

func calculate(rate Rate, params Params) Calculation {
	amount := int64(math.Round(float64(params.Amount) * rate.RatePercentage / 100))

	groupID := params.GroupID
	if rate.GroupID != nil {
		groupID = rate.GroupID
	}

	return Calculation{
		ServiceType:      params.ServiceType,
		Amount:           params.Amount,
		RatePercentage:   rate.RatePercentage,
		CommissionAmount: amount,
		GroupID:          groupID,
		UserID:           params.UserID,
	}
}
