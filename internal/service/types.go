package service

import (
	"time"

	"lost_and_found/internal/models"
)

// SignUpInput is the raw signup form.
type SignUpInput struct {
	Username        string `json:"username" validate:"required"`
	Email           string `json:"email" validate:"required,contains=@"`
	Password        string `json:"password" validate:"required,min=6,bcryptmax"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type signInInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignUpResult struct {
	Message  string
	Redirect string
	User     models.PublicUser
}

type VerifyResult struct {
	Message         string
	Username        string
	AlreadyVerified bool
}

type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.PublicUser
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Type  string    // "", "SIGN_UP", "VERIFY", "LOGIN", "LOGIN_FAILED", "NOTIFY_FAILED"
	Limit int
}
