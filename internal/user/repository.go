package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var (
	errInvalidPassword = errors.New("invalid password")
	errInvalidPIN      = errors.New("invalid pin")

	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
)

type Repository interface {
	Register(ctx context.Context, arg registerRequest) (userResponse, error)
	Login(ctx context.Context, arg loginRequest) (loginResponse, string, error)
	Get(ctx context.Context, userID string) (userResponse, error)

	// VerifyPIN backs the USSD login flow.
	VerifyPIN(ctx context.Context, phone, pin string) (string, error)

	validateSessionToken(ctx context.Context, token string) (loginResponse, error)
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

func (r *repository) Register(ctx context.Context, arg registerRequest) (userResponse, error) {
	passwordHash, err := hashSecret(arg.Password)
	if err != nil {
		return userResponse{}, err
	}

	pinHash, err := hashSecret(arg.Pin)
	if err != nil {
		return userResponse{}, err
	}

	query := `
		INSERT INTO users (
			email,
			phone,
			password_hash,
			pin_hash,
			first_name,
			last_name,
			date_of_birth,
			address,
			role
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING
			user_id,
			created_at,
			updated_at,
			email,
			phone,
			first_name,
			last_name,
			role
	`

	rows, err := r.querier.Query(
		ctx,
		query,
		arg.Email,
		NormalizePhone(arg.Phone),
		passwordHash,
		pinHash,
		arg.FirstName,
		arg.LastName,
		arg.DateOfBirth,
		arg.Address,
		Member,
	)
	if err != nil {
		return userResponse{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[userResponse])
}

func (r *repository) Login(ctx context.Context, arg loginRequest) (loginResponse, string, error) {
	query := `
		SELECT
			user_id,
			created_at,
			updated_at,
			email,
			phone,
			first_name,
			last_name,
			role,
			password_hash
		FROM users
		WHERE email = ($1)
	`

	rows, err := r.querier.Query(ctx, query, arg.Email)
	if err != nil {
		return loginResponse{}, "", err
	}

	record, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userRecord])
	if err != nil {
		return loginResponse{}, "", err
	}

	if !checkSecretHash(arg.Password, record.PasswordHash) {
		return loginResponse{}, "", errInvalidPassword
	}

	token, err := r.generateSessionToken()
	if err != nil {
		return loginResponse{}, "", err
	}

	ses, err := r.createSession(ctx, token, record.UserID)
	if err != nil {
		return loginResponse{}, "", err
	}

	if _, err := r.querier.Exec(
		ctx,
		`UPDATE users SET last_login = now() WHERE user_id = ($1)`,
		record.UserID,
	); err != nil {
		return loginResponse{}, "", err
	}

	return loginResponse{
		User:    record.userResponse,
		Session: ses,
	}, token, nil
}

func (r *repository) Get(ctx context.Context, userID string) (userResponse, error) {
	query := `
		SELECT
			user_id,
			created_at,
			updated_at,
			email,
			phone,
			first_name,
			last_name,
			role
		FROM users
		WHERE user_id = ($1)
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		return userResponse{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[userResponse])
}

func (r *repository) VerifyPIN(ctx context.Context, phone, pin string) (string, error) {
	var (
		userID  string
		pinHash string
	)

	row := r.querier.QueryRow(
		ctx,
		`SELECT user_id, pin_hash FROM users WHERE phone = ($1)`,
		NormalizePhone(phone),
	)
	if err := row.Scan(&userID, &pinHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}

		return "", err
	}

	if !checkSecretHash(pin, pinHash) {
		return "", errInvalidPIN
	}

	return userID, nil
}

type userRecord struct {
	userResponse

	PasswordHash string `db:"password_hash"`
}

type userResponse struct {
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Email     string    `json:"email"     db:"email"`
	Phone     string    `json:"phone"     db:"phone"`
	FirstName string    `json:"firstName" db:"first_name"`
	LastName  string    `json:"lastName"  db:"last_name"`
	Role      Role      `json:"role"      db:"role"`
}
