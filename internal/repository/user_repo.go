package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lost_and_found/internal/models"

	"github.com/google/uuid"
)

type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewUserRepository(db *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

// Ensure implementation of UserDirectory interface at compile time.
var _ UserDirectory = (*UserRepository)(nil)

const (
	userColumns = `id, username, email, password_hash, role, is_verified, verification_token, created_at`

	insertUserSQL = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	selectUserByEmailSQL    = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	selectUserByTokenSQL    = `SELECT ` + userColumns + ` FROM users WHERE verification_token = ?`

	markVerifiedSQL = `UPDATE users SET is_verified = ?, verification_token = NULL WHERE id = ?`
)

// Create inserts u. ID and CreatedAt are assigned when empty.
// Unique violations are reported as ErrDuplicateUsername or ErrDuplicateEmail.
func (r *UserRepository) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = u.CreatedAt.UTC()

	_, err := r.db.ExecContext(ctx, r.dialect.rebind(insertUserSQL),
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		u.IsVerified,
		nullableString(u.VerificationToken),
		r.dialect.timeArg(u.CreatedAt),
	)
	if err != nil {
		if dup := uniqueViolation(err); dup != nil {
			return models.User{}, dup
		}
		return models.User{}, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := r.findOne(ctx, selectUserByUsernameSQL, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("select user %q: %w", username, err)
	}
	return u, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := r.findOne(ctx, selectUserByEmailSQL, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, err
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNotFound
	}
	u, err := r.findOne(ctx, selectUserByTokenSQL, token)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return models.User{}, fmt.Errorf("select user by verification token: %w", err)
	}
	return u, err
}

// MarkVerified sets is_verified and clears the token in a single statement.
// Running it twice leaves the row unchanged.
func (r *UserRepository) MarkVerified(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(markVerifiedSQL), true, userID)
	if err != nil {
		return fmt.Errorf("mark user %q verified: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for user %q: %w", userID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	var (
		u     models.User
		role  string
		token sql.NullString
	)
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(query), arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.IsVerified,
		&token,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	u.Role = models.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	if token.Valid {
		t := token.String
		u.VerificationToken = &t
	}
	return u, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
