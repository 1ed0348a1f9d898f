package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

var pinPattern = regexp.MustCompile(`^\d{6}$`)

type registerRequest struct {
	Email           string    `json:"email"`
	Password        string    `json:"password"`
	ConfirmPassword string    `json:"confirmPassword"`
	Pin             string    `json:"pin"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Phone           string    `json:"phone"`
	DateOfBirth     time.Time `json:"dateOfBirth"`
	Address         *string   `json:"address"`
}

func (arg registerRequest) validate() error {
	switch {
	case arg.Email == "":
		return errors.New("email is required")
	case len(arg.Password) < 6:
		return errors.New("password must be at least 6 characters")
	case arg.Password != arg.ConfirmPassword:
		return errors.New("passwords don't match")
	case !pinPattern.MatchString(arg.Pin):
		return errors.New("pin must be 6 digits")
	case arg.FirstName == "" || arg.LastName == "":
		return errors.New("first and last name are required")
	case !ValidPhone(arg.Phone):
		return errors.New("invalid Nigerian phone number")
	}

	return nil
}

func (s *Server) Register(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data registerRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("register: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid registration request.",
		}
	}

	if err := data.validate(); err != nil {
		return api.Response{
			Error:   fmt.Errorf("register: %w", err),
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		}
	}

	account, err := s.repository.Register(ctx, data)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return api.Response{
				Error:   fmt.Errorf("register: %w", err),
				Code:    http.StatusConflict,
				Message: "An account with this email or phone already exists.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("register: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to register.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Registration successful.",
		Data:    account,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User    userResponse `json:"user"`
	Session session      `json:"session"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data loginRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("login: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid login request.",
		}
	}

	response, token, err := s.repository.Login(ctx, data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("login: %w", err),
				Code:    http.StatusNotFound,
				Message: "Invalid credentials.",
			}
		}

		if errors.Is(err, errInvalidPassword) {
			return api.Response{
				Error:   fmt.Errorf("login: %w", err),
				Code:    http.StatusUnauthorized,
				Message: "Invalid password.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("login: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to login.",
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		Expires:  response.Session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully logged in.",
		Data:    response,
	}
}

type contextKey int

const userIDKey contextKey = 0

// NewContext returns a copy of ctx carrying the authenticated user's
// ID, as stamped by AuthMiddleware.
func NewContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// FromContext reports the authenticated user ID stamped on ctx by
// AuthMiddleware, if any.
func FromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		token, err := r.Cookie("session")
		if err != nil {
			slog.Error(err.Error())
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		response, err := s.repository.validateSessionToken(ctx, token.Value)
		if err != nil {
			slog.Error(err.Error())
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), response.User.UserID)))
	})
}
