package lost_and_found

import (
	"time"

	"lost_and_found/internal/models"
)

// ErrorResponse is the body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error  string `json:"error" example:"Invalid credentials"`
	Field  string `json:"field,omitempty" example:"password"`
	Detail string `json:"detail,omitempty"` // non-production only
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Logged out"`
}

type SignUpResponse struct {
	Message  string `json:"message" example:"Signup successful! Check your email to verify your account."`
	Redirect string `json:"redirect" example:"/login"`
}

type VerifyResponse struct {
	Message  string `json:"message" example:"Email verified successfully! You can now log in."`
	Username string `json:"username,omitempty" example:"alice"`
}

type LoginResponse struct {
	Message string            `json:"message" example:"Login successful"`
	User    models.PublicUser `json:"user"`
}

type MeResponse struct {
	ID        string      `json:"id" example:"6f1c2a7e-0b1d-4c8e-9a51-3f2d8e7b9c10"`
	Role      models.Role `json:"role" example:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type EventsResponse struct {
	Count  int                `json:"count"`
	Events []models.AuthEvent `json:"events"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
