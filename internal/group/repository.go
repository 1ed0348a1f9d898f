package group

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sundayekpa25-ai/WeThrift/internal/user"
)

type GroupType = string

const (
	Community GroupType = "community"
	Formal    GroupType = "formal"
	Corporate GroupType = "corporate"
)

type MemberRole = string

const (
	RoleMember    MemberRole = "member"
	RoleModerator MemberRole = "moderator"
	RoleAdmin     MemberRole = "admin"
)

var (
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrGroupFull         = errors.New("group is full")
)

type Group struct {
	GroupID        string    `json:"groupId"        db:"group_id"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
	Name           string    `json:"name"           db:"name"`
	Description    *string   `json:"description"    db:"description"`
	GroupType      GroupType `json:"groupType"      db:"group_type"`
	AdminID        string    `json:"adminId"        db:"admin_id"`
	GroupCode      string    `json:"groupCode"      db:"group_code"`
	InviteCode     string    `json:"inviteCode"     db:"invite_code"`
	MaxMembers     int       `json:"maxMembers"     db:"max_members"`
	CurrentMembers int       `json:"currentMembers" db:"current_members"`
	IsActive       bool      `json:"isActive"       db:"is_active"`
}

type Member struct {
	UserID           string     `json:"userId"           db:"user_id"`
	Role             MemberRole `json:"role"             db:"role"`
	Status           string     `json:"status"           db:"status"`
	JoinedAt         time.Time  `json:"joinedAt"         db:"joined_at"`
	CommissionEarned int64      `json:"commissionEarned" db:"commission_earned"`
	FirstName        string     `json:"firstName"        db:"first_name"`
	LastName         string     `json:"lastName"         db:"last_name"`
}

type groupWithMembers struct {
	Group

	Admin   user.BasicInfo `json:"admin"   db:"admin"`
	Members []Member       `json:"members" db:"members"`
}

type Repository interface {
	Create(ctx context.Context, arg createGroupRequest, adminID string) (Group, error)
	Get(ctx context.Context, groupID string) (groupWithMembers, error)
	ListByUser(ctx context.Context, userID string) ([]Group, error)
	JoinByInviteCode(ctx context.Context, inviteCode, userID string) (Group, error)
}

type repository struct {
	querier *pgxpool.Pool
}

func NewRepository(querier *pgxpool.Pool) Repository {
	return &repository{
		querier: querier,
	}
}

func (r *repository) Create(
	ctx context.Context,
	arg createGroupRequest,
	adminID string,
) (Group, error) {
	tx, err := r.querier.Begin(ctx)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO groups (
			name,
			description,
			group_type,
			admin_id,
			group_code,
			invite_code,
			max_members,
			current_members,
			is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, true)
		RETURNING
			group_id,
			created_at,
			updated_at,
			name,
			description,
			group_type,
			admin_id,
			group_code,
			invite_code,
			max_members,
			current_members,
			is_active
	`

	rows, err := tx.Query(
		ctx,
		query,
		arg.Name,
		arg.Description,
		arg.GroupType,
		adminID,
		randomCode(6),
		randomCode(10),
		arg.MaxMembers,
	)
	if err != nil {
		return Group{}, err
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Group])
	if err != nil {
		return Group{}, err
	}

	query = `
		INSERT INTO group_members (group_id, user_id, role, status)
		VALUES ($1, $2, $3, 'active')
	`

	if _, err := tx.Exec(ctx, query, created.GroupID, adminID, RoleAdmin); err != nil {
		return Group{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Group{}, err
	}

	return created, nil
}

func (r *repository) Get(ctx context.Context, groupID string) (groupWithMembers, error) {
	query := `
		WITH active_members AS (
			SELECT
				group_members.group_id,
				jsonb_agg(
					jsonb_build_object(
						'userId', group_members.user_id,
						'role', group_members.role,
						'status', group_members.status,
						'joinedAt', group_members.joined_at,
						'commissionEarned', group_members.commission_earned,
						'firstName', users.first_name,
						'lastName', users.last_name
					)
					ORDER BY group_members.joined_at
				) AS members
			FROM group_members
			JOIN users ON users.user_id = group_members.user_id
			WHERE group_members.status = 'active'
			GROUP BY group_members.group_id
		)
		SELECT
			groups.group_id,
			groups.created_at,
			groups.updated_at,
			groups.name,
			groups.description,
			groups.group_type,
			groups.admin_id,
			groups.group_code,
			groups.invite_code,
			groups.max_members,
			groups.current_members,
			groups.is_active,
			jsonb_build_object(
				'userId', admins.user_id,
				'firstName', admins.first_name,
				'lastName', admins.last_name
			) AS admin,
			active_members.members
		FROM groups
		JOIN users AS admins ON admins.user_id = groups.admin_id
		LEFT JOIN active_members ON active_members.group_id = groups.group_id
		WHERE groups.group_id = ($1)
	`

	rows, err := r.querier.Query(ctx, query, groupID)
	if err != nil {
		return groupWithMembers{}, err
	}

	return pgx.CollectOneRow(rows, pgx.RowToStructByName[groupWithMembers])
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]Group, error) {
	query := `
		SELECT
			groups.group_id,
			groups.created_at,
			groups.updated_at,
			groups.name,
			groups.description,
			groups.group_type,
			groups.admin_id,
			groups.group_code,
			groups.invite_code,
			groups.max_members,
			groups.current_members,
			groups.is_active
		FROM group_members
		JOIN groups ON groups.group_id = group_members.group_id
		WHERE group_members.user_id = ($1)
			AND group_members.status = 'active'
			AND groups.is_active = true
		ORDER BY groups.created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[Group])
}

func (r *repository) JoinByInviteCode(
	ctx context.Context,
	inviteCode, userID string,
) (Group, error) {
	tx, err := r.querier.Begin(ctx)
	if err != nil {
		return Group{}, err
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT
			group_id,
			created_at,
			updated_at,
			name,
			description,
			group_type,
			admin_id,
			group_code,
			invite_code,
			max_members,
			current_members,
			is_active
		FROM groups
		WHERE invite_code = ($1) AND is_active = true
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, inviteCode)
	if err != nil {
		return Group{}, err
	}

	found, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Group])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Group{}, ErrInvalidInviteCode
		}

		return Group{}, err
	}

	if found.CurrentMembers >= found.MaxMembers {
		return Group{}, ErrGroupFull
	}

	query = `
		INSERT INTO group_members (group_id, user_id, role, status)
		VALUES ($1, $2, $3, 'active')
	`

	if _, err := tx.Exec(ctx, query, found.GroupID, userID, RoleMember); err != nil {
		return Group{}, err
	}

	query = `
		UPDATE groups
		SET current_members = current_members + 1, updated_at = now()
		WHERE group_id = ($1)
	`

	if _, err := tx.Exec(ctx, query, found.GroupID); err != nil {
		return Group{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Group{}, err
	}

	found.CurrentMembers++

	return found, nil
}

var codeEncoder = base32.StdEncoding.WithPadding(base32.NoPadding)

func randomCode(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)

	return codeEncoder.EncodeToString(bytes)[:length]
}
