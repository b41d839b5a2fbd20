package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lost_and_found/internal/models"
	"lost_and_found/internal/service"

	"github.com/gin-gonic/gin"
)

// minimal router wiring only the middleware + a protected endpoint
func newMiddlewareOnlyRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(s, nil, Options{})
	r.GET("/secure", h.authenticate, func(c *gin.Context) {
		uid, _ := c.Get(ctxUserID)
		c.JSON(http.StatusOK, gin.H{"ok": true, "userId": uid})
	})
	r.GET("/admin", h.authenticate, h.requireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthenticate_Errors(t *testing.T) {
	type want struct {
		code   int
		errMsg string
	}
	cases := []struct {
		name   string
		header string
		cookie string
		want   want
	}{
		{
			name: "no credentials",
			want: want{code: http.StatusUnauthorized, errMsg: "missing session token"},
		},
		{
			name:   "invalid scheme",
			header: "Token abc",
			want:   want{code: http.StatusUnauthorized, errMsg: "invalid Authorization header format"},
		},
		{
			name:   "bearer without token",
			header: "Bearer",
			want:   want{code: http.StatusUnauthorized, errMsg: "invalid Authorization header format"},
		},
		{
			name:   "unknown bearer token",
			header: "Bearer forged",
			want:   want{code: http.StatusUnauthorized, errMsg: "invalid or expired token"},
		},
		{
			name:   "unknown cookie token",
			cookie: "forged",
			want:   want{code: http.StatusUnauthorized, errMsg: "invalid or expired token"},
		},
	}

	r := newMiddlewareOnlyRouter(&service.Service{Authorization: newMockAuth()})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tc.cookie})
			}
			r.ServeHTTP(w, req)

			if w.Code != tc.want.code {
				t.Fatalf("status=%d want %d", w.Code, tc.want.code)
			}
			var m map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &m)
			if m["error"] != tc.want.errMsg {
				t.Fatalf("error=%q want %q", m["error"], tc.want.errMsg)
			}
		})
	}
}

func TestAuthenticate_SuccessFromCookieAndHeader(t *testing.T) {
	auth := newMockAuth()
	r := newMiddlewareOnlyRouter(&service.Service{Authorization: auth})

	// cookie
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: userToken})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("cookie status=%d body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["userId"] != "u-1" {
		t.Fatalf("userId=%v", m["userId"])
	}

	// bearer header
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header = authHeader(userToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("header status=%d", w.Code)
	}

	// cookie wins over header
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header = authHeader("forged")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: userToken})
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || auth.lastParseToken != userToken {
		t.Fatalf("status=%d parsed=%q", w.Code, auth.lastParseToken)
	}
}

func TestRequireRole(t *testing.T) {
	r := newMiddlewareOnlyRouter(&service.Service{Authorization: newMockAuth()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header = authHeader(userToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header = authHeader(adminToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin: status=%d", w.Code)
	}
}

func TestMe(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: newMockAuth()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header = authHeader(adminToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["id"] != "a-1" || m["role"] != "admin" {
		t.Fatalf("unexpected body: %v", m)
	}
}
