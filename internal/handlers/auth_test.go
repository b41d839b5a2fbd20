package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lost_and_found/internal/models"
	"lost_and_found/internal/service"
)

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return m
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_SignUp(t *testing.T) {
	auth := newMockAuth()
	auth.signUpRes = service.SignUpResult{Message: service.MsgSignUpSuccess, Redirect: "/login"}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"secret1","confirmPassword":"secret1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status=%d, body=%s", w.Code, w.Body.String())
	}
	m := decodeBody(t, w)
	if m["message"] != service.MsgSignUpSuccess || m["redirect"] != "/login" {
		t.Fatalf("unexpected body: %v", m)
	}
	if auth.lastSignUp.ConfirmPassword != "secret1" || auth.lastSignUp.Email != "alice@example.com" {
		t.Fatalf("input not forwarded: %+v", auth.lastSignUp)
	}
	if _, leaked := m["user"]; leaked {
		t.Fatalf("signup must not return the user record: %v", m)
	}
}

func TestAuthHandlers_SignUpErrors(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		err       error
		wantCode  int
		wantError string
		wantField string
	}{
		{
			name:      "bad json",
			body:      `{"username":1}`,
			wantCode:  http.StatusBadRequest,
			wantError: "invalid request body",
		},
		{
			name:      "validation",
			body:      `{"username":"alice"}`,
			err:       &service.Error{Kind: service.KindValidation, Message: service.MsgAllFieldsRequired, Field: "email"},
			wantCode:  http.StatusBadRequest,
			wantError: service.MsgAllFieldsRequired,
			wantField: "email",
		},
		{
			name:      "duplicate username",
			body:      `{}`,
			err:       &service.Error{Kind: service.KindDuplicateUsername, Message: service.MsgUsernameTaken, Field: "username"},
			wantCode:  http.StatusBadRequest,
			wantError: service.MsgUsernameTaken,
			wantField: "username",
		},
		{
			name:      "duplicate email",
			body:      `{}`,
			err:       &service.Error{Kind: service.KindDuplicateEmail, Message: service.MsgEmailRegistered, Field: "email"},
			wantCode:  http.StatusBadRequest,
			wantError: service.MsgEmailRegistered,
			wantField: "email",
		},
		{
			name:      "storage",
			body:      `{}`,
			err:       &service.Error{Kind: service.KindStorage, Message: service.MsgInternal, Err: errors.New("disk full")},
			wantCode:  http.StatusInternalServerError,
			wantError: service.MsgInternal,
		},
		{
			name:      "untyped error",
			body:      `{}`,
			err:       errors.New("boom"),
			wantCode:  http.StatusInternalServerError,
			wantError: service.MsgInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := newMockAuth()
			auth.signUpErr = tc.err
			r := newTestRouter(&service.Service{Authorization: auth})

			w := postJSON(r, "/auth/signup", tc.body)
			if w.Code != tc.wantCode {
				t.Fatalf("status=%d want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}
			m := decodeBody(t, w)
			if m["error"] != tc.wantError {
				t.Fatalf("error=%v want %q", m["error"], tc.wantError)
			}
			if tc.wantField != "" && m["field"] != tc.wantField {
				t.Fatalf("field=%v want %q", m["field"], tc.wantField)
			}
			if _, ok := m["detail"]; ok {
				t.Fatalf("detail must be hidden without diagnostics: %v", m)
			}
		})
	}
}

func TestAuthHandlers_InternalDetailWithDiagnostics(t *testing.T) {
	auth := newMockAuth()
	auth.signUpErr = &service.Error{Kind: service.KindStorage, Message: service.MsgInternal, Err: errors.New("disk full")}
	r := newTestRouterWith(&service.Service{Authorization: auth}, Options{Diagnostics: true})

	w := postJSON(r, "/auth/signup", `{}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if m := decodeBody(t, w); m["detail"] != "disk full" {
		t.Fatalf("detail=%v", m["detail"])
	}
}

func TestAuthHandlers_Verify(t *testing.T) {
	auth := newMockAuth()
	auth.verifyRes = service.VerifyResult{Message: service.MsgVerified, Username: "alice"}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/verify?token=abc123", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("verify status=%d, body=%s", w.Code, w.Body.String())
	}
	if auth.lastVerifyToken != "abc123" {
		t.Fatalf("token not forwarded: %q", auth.lastVerifyToken)
	}
	m := decodeBody(t, w)
	if m["message"] != service.MsgVerified || m["username"] != "alice" {
		t.Fatalf("unexpected body: %v", m)
	}

	// unknown token → 400
	auth.verifyErr = &service.Error{Kind: service.KindInvalidOrExpiredToken, Message: service.MsgInvalidOrExpiredToken}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/verify?token=nope", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if m := decodeBody(t, w); m["error"] != service.MsgInvalidOrExpiredToken {
		t.Fatalf("error=%v", m["error"])
	}
}

func TestAuthHandlers_LoginSetsCookie(t *testing.T) {
	for _, secure := range []bool{false, true} {
		auth := newMockAuth()
		auth.signInRes = service.SignInResult{
			Token:     "tok123",
			ExpiresAt: time.Now().Add(time.Hour),
			User:      models.PublicUser{ID: "u-1", Username: "alice", Role: models.RoleUser},
		}
		r := newTestRouterWith(&service.Service{Authorization: auth}, Options{SecureCookie: secure, SessionTTL: time.Hour})

		w := postJSON(r, "/auth/login", `{"username":"alice","password":"secret1"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("login status=%d, body=%s", w.Code, w.Body.String())
		}
		m := decodeBody(t, w)
		if m["message"] != service.MsgLoginSuccess {
			t.Fatalf("message=%v", m["message"])
		}
		user, _ := m["user"].(map[string]any)
		if user["username"] != "alice" || user["role"] != "user" {
			t.Fatalf("user=%v", m["user"])
		}
		if _, leaked := user["password_hash"]; leaked {
			t.Fatalf("hash leaked: %v", user)
		}
		if _, leaked := m["token"]; leaked {
			t.Fatalf("token must only travel in the cookie: %v", m)
		}

		c := sessionCookie(w)
		if c == nil {
			t.Fatalf("no %s cookie set", sessionCookieName)
		}
		if c.Value != "tok123" || !c.HttpOnly || c.SameSite != http.SameSiteLaxMode || c.MaxAge != 3600 || c.Path != "/" {
			t.Fatalf("unexpected cookie: %+v", c)
		}
		if c.Secure != secure {
			t.Fatalf("secure=%v want %v", c.Secure, secure)
		}
	}
}

func TestAuthHandlers_LoginErrors(t *testing.T) {
	auth := newMockAuth()
	auth.signInErr = &service.Error{Kind: service.KindInvalidCredentials, Message: service.MsgInvalidCredentials}
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/login", `{"username":"alice","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if m := decodeBody(t, w); m["error"] != service.MsgInvalidCredentials {
		t.Fatalf("error=%v", m["error"])
	}
	if sessionCookie(w) != nil {
		t.Fatal("cookie must not be set on failure")
	}

	auth.signInErr = &service.Error{Kind: service.KindValidation, Message: service.MsgCredentialsRequired}
	w = postJSON(r, "/auth/login", `{"username":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	w = postJSON(r, "/auth/login", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
}

func TestAuthHandlers_Logout(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: newMockAuth()})

	w := postJSON(r, "/auth/logout", ``)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status=%d", w.Code)
	}
	c := sessionCookie(w)
	if c == nil || c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", c)
	}
}

func TestAuthHandlers_ResendVerification(t *testing.T) {
	auth := newMockAuth()
	r := newTestRouter(&service.Service{Authorization: auth})

	w := postJSON(r, "/auth/resend-verification", `{"email":"nobody@example.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("resend status=%d", w.Code)
	}
	if m := decodeBody(t, w); m["message"] != service.MsgVerificationSent {
		t.Fatalf("message=%v", m["message"])
	}
	if auth.lastResendEmail != "nobody@example.com" {
		t.Fatalf("email not forwarded: %q", auth.lastResendEmail)
	}

	auth.resendErr = &service.Error{Kind: service.KindValidation, Message: service.MsgEmailRequired, Field: "email"}
	w = postJSON(r, "/auth/resend-verification", `{"email":""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
