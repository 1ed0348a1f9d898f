package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Type = string

const (
	Info    Type = "info"
	Success Type = "success"
	Warning Type = "warning"
	Error   Type = "error"
)

type Channel = string

const (
	Email Channel = "email"
	SMS   Channel = "sms"
	Push  Channel = "push"
	InApp Channel = "in_app"
)

// CreatedChannel is the Redis pub/sub channel every stored notification
// is announced on. The websocket hub subscribes to it.
const CreatedChannel = "notification:created"

type Notification struct {
	NotificationID string    `json:"notificationId" db:"notification_id"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UserID         string    `json:"userId"         db:"user_id"`
	Title          string    `json:"title"          db:"title"`
	Message        string    `json:"message"        db:"message"`
	Type           Type      `json:"type"           db:"type"`
	Channel        Channel   `json:"channel"        db:"channel"`
	Status         string    `json:"status"         db:"status"`
}

type SendRequest struct {
	UserID  string  `json:"userId"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	Type    Type    `json:"type"`
	Channel Channel `json:"channel"`
}

// Sender is the narrow interface the transaction services use to
// notify users about loan decisions, escrow movement and the like.
type Sender interface {
	Send(ctx context.Context, arg SendRequest) (Notification, error)
	SendBulk(ctx context.Context, args []SendRequest) error
}

type Repository interface {
	Sender

	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
}

type repository struct {
	querier     *pgxpool.Pool
	redisClient *redis.Client
}

func NewRepository(querier *pgxpool.Pool, redisClient *redis.Client) Repository {
	return &repository{
		querier:     querier,
		redisClient: redisClient,
	}
}

func (r *repository) Send(ctx context.Context, arg SendRequest) (Notification, error) {
	query := `
		INSERT INTO notifications (user_id, title, message, type, channel, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING
			notification_id,
			created_at,
			user_id,
			title,
			message,
			type,
			channel,
			status
	`

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.UserID,
		arg.Title,
		arg.Message,
		arg.Type,
		arg.Channel,
	)
	if err != nil {
		return Notification{}, err
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Notification])
	if err != nil {
		return Notification{}, err
	}

	created.Status = r.deliver(ctx, created)

	if _, err := r.querier.Exec(
		ctx,
		`UPDATE notifications SET status = ($1) WHERE notification_id = ($2)`,
		created.Status,
		created.NotificationID,
	); err != nil {
		return Notification{}, err
	}

	byt, err := json.Marshal(created)
	if err != nil {
		return Notification{}, err
	}

	if err := r.redisClient.Publish(ctx, CreatedChannel, byt).Err(); err != nil {
		return Notification{}, err
	}

	return created, nil
}

// deliver hands the notification to its channel. Email, SMS and push
// providers are stubbed as log output; in-app is delivered the moment
// it is stored.
func (r *repository) deliver(ctx context.Context, n Notification) string {
	switch n.Channel {
	case Email, SMS, Push:
		slog.Info(fmt.Sprintf(
			"Sending %s notification to user %s: %s",
			n.Channel, n.UserID, n.Title,
		))

		return "sent"
	case InApp:
		return "delivered"
	default:
		slog.Error(fmt.Sprintf("Unknown notification channel: %s", n.Channel))
		return "failed"
	}
}

// bulkSendLimit caps how many Send calls a bulk dispatch runs at once,
// so one large fan-out cannot exhaust the connection pool.
const bulkSendLimit = 8

func (r *repository) SendBulk(ctx context.Context, args []SendRequest) error {
	fanOut(args, bulkSendLimit, func(arg SendRequest) {
		if _, err := r.Send(ctx, arg); err != nil {
			slog.Error(fmt.Errorf("bulk notification: %w", err).Error())
		}
	})

	return nil
}

// fanOut runs send for every request on its own goroutine, at most
// limit at a time, and waits for all of them.
func fanOut(args []SendRequest, limit int, send func(SendRequest)) {
	var wg sync.WaitGroup

	tokens := make(chan struct{}, limit)

	for _, arg := range args {
		wg.Add(1)
		tokens <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-tokens }()

			send(arg)
		}()
	}

	wg.Wait()
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]Notification, error) {
	query := `
		SELECT
			notification_id,
			created_at,
			user_id,
			title,
			message,
			type,
			channel,
			status
		FROM notifications
		WHERE user_id = ($1)
		ORDER BY created_at DESC
		LIMIT ($2) OFFSET ($3)
	`

	rows, err := r.querier.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Notification])
}

func (r *repository) MarkRead(ctx context.Context, notificationID string) error {
	_, err := r.querier.Exec(
		ctx,
		`UPDATE notifications SET status = 'delivered', read_at = now() WHERE notification_id = ($1)`,
		notificationID,
	)

	return err
}

func (r *repository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int

	row := r.querier.QueryRow(
		ctx,
		`SELECT count(*) FROM notifications WHERE user_id = ($1) AND read_at IS NULL`,
		userID,
	)
	if err := row.Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
