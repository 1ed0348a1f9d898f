package group

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

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

type createGroupRequest struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	GroupType   GroupType `json:"groupType"`
	MaxMembers  int       `json:"maxMembers"`
	AdminID     string    `json:"adminId"`
}

func (s *Server) CreateGroup(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data createGroupRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("create group: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid group request.",
		}
	}

	if data.Name == "" || data.AdminID == "" || data.MaxMembers < 2 {
		return api.Response{
			Error:   fmt.Errorf("create group: missing name, admin or member limit"),
			Code:    http.StatusBadRequest,
			Message: "Group name, admin and a member limit of at least 2 are required.",
		}
	}

	created, err := s.repository.Create(ctx, data, data.AdminID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("create group: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to create group.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully created group.",
		Data:    created,
	}
}

func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	groupID := r.PathValue("groupID")

	found, err := s.repository.Get(ctx, groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return api.Response{
				Error:   fmt.Errorf("get group: %w", err),
				Code:    http.StatusNotFound,
				Message: "Group not found.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("get group: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get group.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched group.",
		Data:    found,
	}
}

func (s *Server) GetUserGroups(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := r.PathValue("userID")

	groups, err := s.repository.ListByUser(ctx, userID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get user groups: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get groups.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched groups.",
		Data:    groups,
	}
}

type joinGroupRequest struct {
	InviteCode string `json:"inviteCode"`
	UserID     string `json:"userId"`
}

func (s *Server) JoinGroup(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var data joinGroupRequest

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&data); err != nil {
		return api.Response{
			Error:   fmt.Errorf("join group: %w", err),
			Code:    http.StatusBadRequest,
			Message: "Invalid join request.",
		}
	}

	joined, err := s.repository.JoinByInviteCode(ctx, data.InviteCode, data.UserID)
	if err != nil {
		if errors.Is(err, ErrInvalidInviteCode) {
			return api.Response{
				Error:   fmt.Errorf("join group: %w", err),
				Code:    http.StatusNotFound,
				Message: "Invalid invite code.",
			}
		}

		if errors.Is(err, ErrGroupFull) {
			return api.Response{
				Error:   fmt.Errorf("join group: %w", err),
				Code:    http.StatusConflict,
				Message: "Group is full.",
			}
		}

		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return api.Response{
				Error:   fmt.Errorf("join group: %w", err),
				Code:    http.StatusConflict,
				Message: "You are already a member of this group.",
			}
		}

		return api.Response{
			Error:   fmt.Errorf("join group: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to join group.",
		}
	}

	return api.Response{
		Code:    http.StatusCreated,
		Message: "Successfully joined group.",
		Data:    joined,
	}
}
