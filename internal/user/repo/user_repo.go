package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sodam-care/service-care-go/internal/user/entity"
	"github.com/sodam-care/service-care-go/pkg/database"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

const userColumns = `id, institution_id, auth_type, email, password_hash, oauth_provider, oauth_id,
	name, profile_image_url, created_at, last_login_at, refresh_token_hash, elder_email`

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db database.DBTX
}

func NewUserRepo(db database.DBTX) *UserRepo { return &UserRepo{db: db} }

// WithTx returns a repo bound to tx.
func (r *UserRepo) WithTx(tx *sqlx.Tx) *UserRepo { return &UserRepo{db: tx} }

// Create inserts a new user row. CreatedAt is filled from the database.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	q := r.db.Rebind(`INSERT INTO users (id, institution_id, auth_type, email, password_hash, oauth_provider, oauth_id, name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING created_at`)
	err := r.db.QueryRowxContext(ctx, q,
		u.ID, u.InstitutionID, u.AuthType, u.Email, u.PasswordHash, u.OAuthProvider, u.OAuthID, u.Name,
	).Scan(&u.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail returns the user with the given (normalized) email or ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*entity.User, error) {
	var u entity.User
	if err := r.db.GetContext(ctx, &u, r.db.Rebind(q), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// Update applies the non-nil fields of p to the user row.
// An empty patch is a no-op.
func (r *UserRepo) Update(ctx context.Context, id string, p entity.Patch) error {
	var (
		sets []string
		args []any
	)
	if p.LastLoginAt != nil {
		sets = append(sets, "last_login_at = ?")
		args = append(args, *p.LastLoginAt)
	}
	switch {
	case p.ClearRefreshToken:
		sets = append(sets, "refresh_token_hash = NULL")
	case p.RefreshTokenHash != nil:
		sets = append(sets, "refresh_token_hash = ?")
		args = append(args, *p.RefreshTokenHash)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := r.db.Rebind(`UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
