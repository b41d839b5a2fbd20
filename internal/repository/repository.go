package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lost_and_found/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// UserDirectory owns the users table. Uniqueness of username and email is
// enforced by the storage constraints; violations come back as
// ErrDuplicateUsername / ErrDuplicateEmail.
type UserDirectory interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (models.User, error)
	MarkVerified(ctx context.Context, userID string) error
}

// EventFilter narrows an audit log query. Zero values disable a condition.
type EventFilter struct {
	From  time.Time // inclusive
	To    time.Time // inclusive
	After time.Time // exclusive, used for live tailing
	Type  string
	Limit int
}

type EventRepo interface {
	Append(ctx context.Context, e models.AuthEvent) error
	List(ctx context.Context, f EventFilter) ([]models.AuthEvent, error)
}

type Repository struct {
	Users     UserDirectory
	EventRepo EventRepo
}

func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		Users:     NewUserRepository(db, dialect),
		EventRepo: NewEventRepository(db, dialect),
	}
}
