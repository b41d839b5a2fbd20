package security

import (
	"errors"
	"fmt"
	"time"

	"lost_and_found/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is used when no TTL is configured.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidSessionToken = errors.New("invalid session token")
	ErrMissingSecret       = errors.New("signing secret is empty")
)

// Claims defines the JWT claims of a session token. The user id travels in "sub".
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// Identity is what a valid session token proves.
type Identity struct {
	SubjectID string
	Role      models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Signer issues and verifies HS256 session tokens with a single process-wide key.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Signer{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of s that reads time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

// TTL is the lifetime of tokens issued by Issue.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Issue signs a token for subjectID and role valid for the configured TTL.
func (s *Signer) Issue(subjectID string, role models.Role) (string, time.Time, error) {
	return s.IssueWithTTL(subjectID, role, s.ttl)
}

// IssueWithTTL signs a token that expires ttl from now.
func (s *Signer) IssueWithTTL(subjectID string, role models.Role, ttl time.Duration) (string, time.Time, error) {
	if subjectID == "" || !role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: bad subject %q or role %q", subjectID, role)
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	})
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. Every failure is reported
// as ErrInvalidSessionToken, wrapping the parser's reason.
func (s *Signer) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return Identity{}, ErrInvalidSessionToken
	}

	id := Identity{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id, nil
}
