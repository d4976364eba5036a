package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/CompanyDirectory/internal/domain"
	"github.com/utafrali/CompanyDirectory/pkg/database"
	apperrors "github.com/utafrali/CompanyDirectory/pkg/errors"
)

const userColumns = `id, full_name, email, password_hash, mobile_no, gender, is_email_verified, is_mobile_verified, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u in a single statement. A conflicting email yields no row
// and is reported as domain.ErrDuplicateEmail; a unique violation raised by
// a concurrent insert is mapped the same way.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	const query = `
		INSERT INTO users (id, full_name, email, password_hash, mobile_no, gender, is_email_verified, is_mobile_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO NOTHING
		RETURNING id`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	var id string
	err = r.db.QueryRow(ctx, query,
		u.ID,
		u.FullName,
		u.Email,
		u.PasswordHash,
		u.MobileNo,
		u.Gender,
		u.IsEmailVerified,
		u.IsMobileVerified,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
		return domain.ErrDuplicateEmail
	default:
		return fmt.Errorf("insert user: %w", err)
	}
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves a user by their email address, compared as stored.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// MarkEmailVerified sets is_email_verified.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.setFlag(ctx, "MarkEmailVerified",
		`UPDATE users SET is_email_verified = true, updated_at = now() WHERE id = $1`, id)
}

// MarkMobileVerified sets is_mobile_verified.
func (r *UserRepository) MarkMobileVerified(ctx context.Context, id string) error {
	return r.setFlag(ctx, "MarkMobileVerified",
		`UPDATE users SET is_mobile_verified = true, updated_at = now() WHERE id = $1`, id)
}

func (r *UserRepository) setFlag(ctx context.Context, op, query, id string) (err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.UserNotFound(id)
	}
	return nil
}

func (r *UserRepository) scanUser(ctx context.Context, op, query string, arg string) (_ *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	var u domain.User
	err = r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&u.MobileNo,
		&u.Gender,
		&u.IsEmailVerified,
		&u.IsMobileVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
