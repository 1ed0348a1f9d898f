package ussd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Menu is the named state of a USSD dialog.
type Menu string

const (
	MenuMain          Menu = "main"
	MenuAuth          Menu = "auth"
	MenuDashboard     Menu = "dashboard"
	MenuGroups        Menu = "groups"
	MenuSavings       Menu = "savings"
	MenuLoans         Menu = "loans"
	MenuContributions Menu = "contributions"
	MenuEscrow        Menu = "escrow"
	MenuComplaints    Menu = "complaints"
)

type AuthStep string

const (
	AuthAwaitPhone AuthStep = "await_phone"
	AuthAwaitPIN   AuthStep = "await_pin"
)

// AuthProgress is the multi-turn memory of the login sub-flow. Phone
// is only set once AuthAwaitPhone has been passed, so an
// await-PIN-without-phone state cannot be represented.
type AuthProgress struct {
	Step  AuthStep `json:"step"`
	Phone string   `json:"phone,omitempty"`
}

// Session is one in-progress USSD dialog, keyed by the gateway's
// opaque session id and overwritten in place on every turn.
type Session struct {
	SessionID       string        `json:"sessionId"`
	PhoneNumber     string        `json:"phoneNumber"`
	MenuLevel       Menu          `json:"menuLevel"`
	UserInput       string        `json:"userInput"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	UserID          string        `json:"userId,omitempty"`
	GroupID         string        `json:"groupId,omitempty"`
	Auth            *AuthProgress `json:"auth,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// ErrSessionNotFound reports that no session exists for an id. The
// engine treats it as "first contact", anything else as a degraded
// store.
var ErrSessionNotFound = errors.New("ussd session not found")

type Store interface {
	Get(ctx context.Context, sessionID string) (Session, error)
	Create(ctx context.Context, sessionID, phoneNumber string) (Session, error)
	Update(ctx context.Context, session Session) error
}

// DefaultSessionTTL bounds how long an abandoned dialog survives in
// Redis. USSD gateways drop sessions after a couple of minutes, so
// anything older is stale context that must not be reused.
const DefaultSessionTTL = 5 * time.Minute

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("ussd:session:%s", sessionID)
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Session, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}

		return Session{}, err
	}

	var ses Session

	if err := json.Unmarshal([]byte(data), &ses); err != nil {
		return Session{}, err
	}

	return ses, nil
}

// Create always returns a usable session; a non-nil error means the
// record could not be persisted and the dialog will run degraded for
// this turn.
func (s *RedisStore) Create(ctx context.Context, sessionID, phoneNumber string) (Session, error) {
	now := time.Now()

	ses := Session{
		SessionID:   sessionID,
		PhoneNumber: phoneNumber,
		MenuLevel:   MenuMain,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return ses, s.write(ctx, ses)
}

func (s *RedisStore) Update(ctx context.Context, ses Session) error {
	ses.UpdatedAt = time.Now()

	return s.write(ctx, ses)
}

// write overwrites the whole record and refreshes the TTL, so an
// active dialog keeps sliding its expiry forward.
func (s *RedisStore) write(ctx context.Context, ses Session) error {
	byt, err := json.Marshal(ses)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, sessionKey(ses.SessionID), byt, s.ttl).Err()
}
