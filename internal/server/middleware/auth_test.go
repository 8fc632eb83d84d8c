package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autopark/internal/server/handlers"
	"github.com/iudanet/autopark/pkg/api"
)

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelError,
	}
	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}

func testJWTConfig() handlers.JWTConfig {
	return handlers.JWTConfig{
		Secret:          []byte("test-secret-key-test-secret-key!"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

func TestAuthMiddleware_Success(t *testing.T) {
	jwtConfig := testJWTConfig()

	token, _, err := handlers.GenerateAccessToken(jwtConfig, "user123", "awa@example.com")
	require.NoError(t, err)

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		userID, ok := handlers.GetUserID(r.Context())
		require.True(t, ok, "user_id should be in context")
		assert.Equal(t, "user123", userID)

		email, ok := handlers.GetEmail(r.Context())
		require.True(t, ok, "email should be in context")
		assert.Equal(t, "awa@example.com", email)

		w.WriteHeader(http.StatusOK)
	})

	for _, header := range []string{"Bearer " + token, "bearer " + token} {
		req := httptest.NewRequest(http.MethodGet, "/auth/users/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		AuthMiddleware(setupTestLogger(), jwtConfig)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.True(t, called)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	jwtConfig := testJWTConfig()

	expiredCfg := jwtConfig
	expiredCfg.AccessTokenTTL = -time.Minute
	expired, _, err := handlers.GenerateAccessToken(expiredCfg, "user123", "awa@example.com")
	require.NoError(t, err)

	otherCfg := jwtConfig
	otherCfg.Secret = []byte("some-other-secret-some-other-sec")
	foreign, _, err := handlers.GenerateAccessToken(otherCfg, "user123", "awa@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "missing header", header: "", wantCode: api.CodeUnauthorized},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantCode: api.CodeUnauthorized},
		{name: "bearer without token", header: "Bearer ", wantCode: api.CodeUnauthorized},
		{name: "no space", header: "Bearer", wantCode: api.CodeUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantCode: api.CodeUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, wantCode: api.CodeUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantCode: api.CodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not be called")
			})

			req := httptest.NewRequest(http.MethodGet, "/auth/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(setupTestLogger(), jwtConfig)(next).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

			var resp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, "Unauthorized", resp.Error)
		})
	}
}
