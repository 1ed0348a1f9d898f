package notification

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

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

func (s *Server) GetUserNotifications(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := r.PathValue("userID")

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	notifications, err := s.repository.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get notifications: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to get notifications.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully fetched notifications.",
		Data:    notifications,
	}
}

func (s *Server) MarkNotificationRead(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	notificationID := r.PathValue("notificationID")

	if err := s.repository.MarkRead(ctx, notificationID); err != nil {
		return api.Response{
			Error:   fmt.Errorf("mark notification read: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to update notification.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Notification marked as read.",
	}
}

func (s *Server) GetUnreadCount(w http.ResponseWriter, r *http.Request) api.Response {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	userID := r.PathValue("userID")

	count, err := s.repository.UnreadCount(ctx, userID)
	if err != nil {
		return api.Response{
			Error:   fmt.Errorf("get unread count: %w", err),
			Code:    http.StatusInternalServerError,
			Message: "Failed to count notifications.",
		}
	}

	return api.Response{
		Code:    http.StatusOK,
		Message: "Successfully counted unread notifications.",
		Data:    map[string]int{"unread": count},
	}
}
