package service

import (
	"context"
	"time"

	"lost_and_found/internal/logger"
	"lost_and_found/internal/models"
	"lost_and_found/internal/repository"
	"lost_and_found/internal/security"
)

// Authorization is the signup / verification / login workflow.
type Authorization interface {
	SignUp(ctx context.Context, in SignUpInput) (SignUpResult, error)
	VerifyEmail(ctx context.Context, token string) (VerifyResult, error)
	SignIn(ctx context.Context, username, password string) (SignInResult, error)
	ResendVerification(ctx context.Context, email string) error
	ParseToken(token string) (security.Identity, error)
}

// EventLog exposes the audit log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.AuthEvent, error)
	Tail(ctx context.Context, after time.Time, limit int) ([]models.AuthEvent, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// TokenGenerator produces single-use email verification tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// SessionSigner issues and checks session tokens.
type SessionSigner interface {
	Issue(subjectID string, role models.Role) (string, time.Time, error)
	Verify(token string) (security.Identity, error)
}

// VerificationNotifier sends the verification email. It must not block on
// delivery; a returned error means the email will not be sent.
type VerificationNotifier interface {
	SendVerification(ctx context.Context, email, username, token, baseURL string) error
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	EventLog
}

// Deps are the collaborators injected into the services at startup.
type Deps struct {
	Hasher   PasswordHasher
	Tokens   TokenGenerator
	Signer   SessionSigner
	Notifier VerificationNotifier
	BaseURL  string
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps, log *logger.Logger) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Users, repos.EventRepo, deps, log),
		EventLog:      NewEventLogService(repos.EventRepo),
	}
}
