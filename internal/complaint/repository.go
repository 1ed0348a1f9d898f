package complaint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sundayekpa25-ai/WeThrift/internal/notification"
)

type Type = string

const (
	Transaction Type = "transaction"
	Service     Type = "service"
	Technical   Type = "technical"
	Dispute     Type = "dispute"
	Other       Type = "other"
)

type Priority = string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
	Urgent Priority = "urgent"
)

type Status = string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var (
	ErrUnknownType     = errors.New("unknown complaint type")
	ErrUnknownPriority = errors.New("unknown complaint priority")
)

type Complaint struct {
	ComplaintID string     `json:"complaintId" db:"complaint_id"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt"   db:"updated_at"`
	UserID      string     `json:"userId"      db:"user_id"`
	GroupID     *string    `json:"groupId"     db:"group_id"`
	Type        Type       `json:"type"        db:"type"`
	Category    string     `json:"category"    db:"category"`
	Title       string     `json:"title"       db:"title"`
	Description string     `json:"description" db:"description"`
	Priority    Priority   `json:"priority"    db:"priority"`
	Status      Status     `json:"status"      db:"status"`
	AssignedTo  *string    `json:"assignedTo"  db:"assigned_to"`
	Resolution  *string    `json:"resolution"  db:"resolution"`
	ResolvedAt  *time.Time `json:"resolvedAt"  db:"resolved_at"`
}

type Repository interface {
	Create(ctx context.Context, arg createRequest) (Complaint, error)
	ListByUser(ctx context.Context, userID string) ([]Complaint, error)
	Assign(ctx context.Context, complaintID, assignedTo string) (Complaint, error)
	Resolve(ctx context.Context, complaintID, resolution string) (Complaint, error)
	Close(ctx context.Context, complaintID string) (Complaint, error)
}

type repository struct {
	querier  *pgxpool.Pool
	notifier notification.Sender
}

func NewRepository(querier *pgxpool.Pool, notifier notification.Sender) Repository {
	return &repository{
		querier:  querier,
		notifier: notifier,
	}
}

const complaintColumns = `
	complaint_id,
	created_at,
	updated_at,
	user_id,
	group_id,
	type,
	category,
	title,
	description,
	priority,
	status,
	assigned_to,
	resolution,
	resolved_at
`

func (r *repository) Create(ctx context.Context, arg createRequest) (Complaint, error) {
	query := `
		INSERT INTO complaints (
			user_id,
			group_id,
			type,
			category,
			title,
			description,
			priority,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'open')
		RETURNING` + complaintColumns

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.UserID,
		arg.GroupID,
		arg.Type,
		arg.Category,
		arg.Title,
		arg.Description,
		arg.Priority,
	)
	if err != nil {
		return Complaint{}, err
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Complaint])
	if err != nil {
		return Complaint{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  created.UserID,
		Title:   "Complaint Received",
		Message: fmt.Sprintf("Your complaint %q has been received and is being reviewed.", created.Title),
		Type:    notification.Info,
		Channel: notification.InApp,
	}); err != nil {
		return Complaint{}, err
	}

	return created, nil
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Complaint, error) {
	query := `
		SELECT` + complaintColumns + `
		FROM complaints
		WHERE user_id = ($1)
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Complaint])
}

func (r *repository) Assign(ctx context.Context, complaintID, assignedTo string) (Complaint, error) {
	query := `
		UPDATE complaints
		SET status = 'in_progress', assigned_to = ($2), updated_at = now()
		WHERE complaint_id = ($1)
		RETURNING` + complaintColumns

	rows, err := r.querier.Query(ctx, query, complaintID, assignedTo)
	if err != nil {
		return Complaint{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Complaint])
}

func (r *repository) Resolve(ctx context.Context, complaintID, resolution string) (Complaint, error) {
	query := `
		UPDATE complaints
		SET status = 'resolved', resolution = ($2), resolved_at = now(), updated_at = now()
		WHERE complaint_id = ($1)
		RETURNING` + complaintColumns

	rows, err := r.querier.Query(ctx, query, complaintID, resolution)
	if err != nil {
		return Complaint{}, err
	}

	resolved, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Complaint])
	if err != nil {
		return Complaint{}, err
	}

	if _, err := r.notifier.Send(ctx, notification.SendRequest{
		UserID:  resolved.UserID,
		Title:   "Complaint Resolved",
		Message: fmt.Sprintf("Your complaint %q has been resolved.", resolved.Title),
		Type:    notification.Success,
		Channel: notification.InApp,
	}); err != nil {
		return Complaint{}, err
	}

	return resolved, nil
}

func (r *repository) Close(ctx context.Context, complaintID string) (Complaint, error) {
	query := `
		UPDATE complaints
		SET status = 'closed', updated_at = now()
		WHERE complaint_id = ($1)
		RETURNING` + complaintColumns

	rows, err := r.querier.Query(ctx, query, complaintID)
	if err != nil {
		return Complaint{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[Complaint])
}
