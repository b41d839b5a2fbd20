package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"lost_and_found/internal/models"
	"lost_and_found/internal/security"
	"lost_and_found/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpRes  service.SignUpResult
	signUpErr  error
	verifyRes  service.VerifyResult
	verifyErr  error
	signInRes  service.SignInResult
	signInErr  error
	resendErr  error
	identities map[string]security.Identity

	lastSignUp      service.SignUpInput
	lastVerifyToken string
	lastUsername    string
	lastPassword    string
	lastResendEmail string
	lastParseToken  string
}

func (m *mockAuth) SignUp(ctx context.Context, in service.SignUpInput) (service.SignUpResult, error) {
	m.lastSignUp = in
	return m.signUpRes, m.signUpErr
}

func (m *mockAuth) VerifyEmail(ctx context.Context, token string) (service.VerifyResult, error) {
	m.lastVerifyToken = token
	return m.verifyRes, m.verifyErr
}

func (m *mockAuth) SignIn(ctx context.Context, username, password string) (service.SignInResult, error) {
	m.lastUsername = username
	m.lastPassword = password
	return m.signInRes, m.signInErr
}

func (m *mockAuth) ResendVerification(ctx context.Context, email string) error {
	m.lastResendEmail = email
	return m.resendErr
}

func (m *mockAuth) ParseToken(token string) (security.Identity, error) {
	m.lastParseToken = token
	if id, ok := m.identities[token]; ok {
		return id, nil
	}
	return security.Identity{}, &service.Error{Kind: service.KindUnauthorized, Message: service.MsgUnauthorized}
}

// Tokens understood by mockAuth.ParseToken.
const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

func newMockAuth() *mockAuth {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return &mockAuth{identities: map[string]security.Identity{
		userToken:  {SubjectID: "u-1", Role: models.RoleUser, ExpiresAt: exp},
		adminToken: {SubjectID: "a-1", Role: models.RoleAdmin, ExpiresAt: exp},
	}}
}

type mockEventLog struct {
	mu sync.Mutex

	resp     []models.AuthEvent
	err      error
	lastList service.LogFilter

	tailResp  [][]models.AuthEvent // consumed one batch per call
	tailErr   error
	tailAfter []time.Time
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.AuthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastList = f
	return m.resp, m.err
}

func (m *mockEventLog) Tail(ctx context.Context, after time.Time, limit int) ([]models.AuthEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tailAfter = append(m.tailAfter, after)
	if m.tailErr != nil {
		return nil, m.tailErr
	}
	if len(m.tailResp) == 0 {
		return nil, nil
	}
	batch := m.tailResp[0]
	m.tailResp = m.tailResp[1:]
	return batch, nil
}

func (m *mockEventLog) tailCursors() []time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Time(nil), m.tailAfter...)
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWith(s, Options{})
}

func newTestRouterWith(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}
