package user

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRepository struct {
	account userResponse
	err     error
}

func (f *fakeRepository) Register(ctx context.Context, arg registerRequest) (userResponse, error) {
	return f.account, f.err
}

func (f *fakeRepository) Login(ctx context.Context, arg loginRequest) (loginResponse, string, error) {
	return loginResponse{User: f.account}, "", f.err
}

func (f *fakeRepository) Get(ctx context.Context, userID string) (userResponse, error) {
	return f.account, f.err
}

func (f *fakeRepository) VerifyPIN(ctx context.Context, phone, pin string) (string, error) {
	return f.account.UserID, f.err
}

func (f *fakeRepository) validateSessionToken(ctx context.Context, token string) (loginResponse, error) {
	return loginResponse{User: f.account}, f.err
}

func TestAuthMiddlewareStampsUserID(t *testing.T) {
	server := NewServer(&fakeRepository{account: userResponse{UserID: "user-9"}})

	var gotID string
	var gotOK bool

	handler := server.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/commission-rates", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "token"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotOK)
	assert.Equal(t, "user-9", gotID)
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	server := NewServer(&fakeRepository{err: errors.New("session has expired")})

	called := false
	handler := server.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/commission-rates", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "token"})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())

	assert.False(t, ok)
}
