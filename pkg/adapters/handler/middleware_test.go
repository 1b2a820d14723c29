package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lessonlines/lessonlines/pkg/config"
	"github.com/lessonlines/lessonlines/pkg/logging"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{
		JWTSecret: "testservlet",
	}
	mw := NewMiddleware(cfg, logging.Discard())

	tests := []struct {
		name           string
		cookieValue    string
		bearer         string
		expectedStatus int
	}{
		{
			name:           "No Token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Cookie",
			cookieValue:    "invalid",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Wrong Secret",
			bearer:         generateTestToken(t, "other", uuid.NewString(), time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Expired",
			bearer:         generateTestToken(t, cfg.JWTSecret, uuid.NewString(), -time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Subject Not A User ID",
			bearer:         generateTestToken(t, cfg.JWTSecret, "test@example.com", time.Minute),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Cookie",
			cookieValue:    generateTestToken(t, cfg.JWTSecret, uuid.NewString(), time.Minute),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Valid Bearer",
			bearer:         generateTestToken(t, cfg.JWTSecret, uuid.NewString(), time.Minute),
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/timelines", nil)
			if tt.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: authCookieName, Value: tt.cookieValue})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}

			rr := httptest.NewRecorder()
			handler := mw.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, ok := IdentityFrom(r.Context()); !ok {
					t.Error("identity missing from context")
				}
				w.WriteHeader(http.StatusOK)
			}))

			handler.ServeHTTP(rr, req)

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v",
					status, tt.expectedStatus)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	cfg := &config.Config{JWTSecret: "testservlet"}
	mw := NewMiddleware(cfg, logging.Discard())
	handler := mw.AuthMiddleware(mw.AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	for _, isAdmin := range []bool{false, true} {
		token, err := IssueToken(cfg.JWTSecret, uuid.New(), isAdmin, time.Minute)
		if err != nil {
			t.Fatalf("Failed to sign token: %v", err)
		}
		req := httptest.NewRequest("GET", "/api/admin/candidates", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		want := http.StatusForbidden
		if isAdmin {
			want = http.StatusOK
		}
		if rr.Code != want {
			t.Errorf("is_admin=%v: got %v want %v", isAdmin, rr.Code, want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &config.Config{CORSOrigins: []string{"http://localhost:5173"}}
	mw := NewMiddleware(cfg, logging.Discard())
	handler := mw.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached the handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/timelines", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("got %v want %v", rr.Code, http.StatusNoContent)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

func generateTestToken(t *testing.T, secret, subject string, ttl time.Duration) string {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return tokenString
}
