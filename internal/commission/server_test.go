package commission

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayekpa25-ai/WeThrift/internal/user"
)

type fakeRepository struct {
	createdBy string
}

func (f *fakeRepository) Calculate(ctx context.Context, params Params) (*Calculation, error) {
	return nil, nil
}

func (f *fakeRepository) CreateRate(ctx context.Context, arg createRateRequest, createdBy string) (Rate, error) {
	f.createdBy = createdBy

	return Rate{
		RateID:         "rate-1",
		ServiceType:    arg.ServiceType,
		GroupID:        arg.GroupID,
		RatePercentage: arg.RatePercentage,
		MinimumAmount:  arg.MinimumAmount,
		MaximumAmount:  arg.MaximumAmount,
		IsActive:       true,
	}, nil
}

func (f *fakeRepository) ListRates(ctx context.Context, groupID *string, serviceType string) ([]Rate, error) {
	return nil, nil
}

func (f *fakeRepository) DeactivateRate(ctx context.Context, rateID string) error {
	return nil
}

func TestCreateRateRecordsAuthenticatedUser(t *testing.T) {
	repo := &fakeRepository{}
	server := NewServer(repo)

	body := `{"serviceType": "savings", "ratePercentage": 2.5, "minimumAmount": 1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/commission-rates", strings.NewReader(body))
	req = req.WithContext(user.NewContext(req.Context(), "admin-7"))

	res := server.CreateRate(httptest.NewRecorder(), req)

	require.NoError(t, res.Error)
	assert.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, "admin-7", repo.createdBy)
}

func TestCreateRateWithoutUserIsUnauthorized(t *testing.T) {
	repo := &fakeRepository{}
	server := NewServer(repo)

	body := `{"serviceType": "savings", "ratePercentage": 2.5, "minimumAmount": 1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/commission-rates", strings.NewReader(body))

	res := server.CreateRate(httptest.NewRecorder(), req)

	assert.Error(t, res.Error)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, repo.createdBy)
}
