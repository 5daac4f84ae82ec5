package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"

	"github.com/atendimento/crm-dashboard/pkg/logger"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func validClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "agent-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name:  "Carla",
		Roles: []string{"agent"},
	}
}

func TestAuth(t *testing.T) {
	var agentID string
	var roles []string
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agentID = GetAgentID(r.Context())
		roles = GetRoles(r.Context())
	}))

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"valid header", "Bearer " + signToken(t, testSecret, validClaims()), "", http.StatusOK},
		{"valid query token", "", signToken(t, testSecret, validClaims()), http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", validClaims()), "", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, expired), "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agentID, roles = "", nil
			target := "/api/conversations"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusOK {
				if agentID != "agent-7" || len(roles) != 1 || roles[0] != "agent" {
					t.Errorf("claims not propagated: %q %v", agentID, roles)
				}
			}
		})
	}
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	called := false
	handler := Auth("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leads", nil))
	if !called || rec.Code != http.StatusOK {
		t.Errorf("expected pass-through, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/webhook/message", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") != "60" {
		t.Errorf("unexpected Retry-After %q", last.Header().Get("Retry-After"))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/message", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other clients must not be limited, got %d", rec.Code)
	}
}

func TestLoggingSetsCorrelationID(t *testing.T) {
	var fromCtx string
	handler := Logging(logger.Wrap(zaptest.NewLogger(t)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status not passed through: %d", rec.Code)
	}
	got := rec.Header().Get(CorrelationIDHeader)
	if got == "" || got != fromCtx {
		t.Errorf("correlation id mismatch: header %q, context %q", got, fromCtx)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(CorrelationIDHeader) != "abc-123" {
		t.Errorf("incoming correlation id not reused: %q", rec.Header().Get(CorrelationIDHeader))
	}
}

func TestValidation(t *testing.T) {
	if err := ValidateUserID(strings.Repeat("1", 129)); err == nil {
		t.Error("expected error for long user id")
	}
	if err := ValidateUserID("5511999990000"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateMessageContent(string([]byte{0xff, 0xfe})); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
	if err := ValidateMessageContent(""); err == nil {
		t.Error("expected error for empty message")
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing nosniff header")
	}
}
