package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/session"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

func TestNewService(t *testing.T) {
	client := api.NewClient("http://localhost:8080")
	store := session.NewStore()

	service := NewService(client, store, nil)

	assert.NotNil(t, service)
	assert.Equal(t, client, service.apiClient)
	assert.Equal(t, store, service.store)
	assert.NotNil(t, service.logger)
}

func TestService_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathRegister, r.URL.Path)

		var req pkgapi.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "awa@example.com", req.Email)
		assert.Equal(t, "Diallo", req.Nom)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(pkgapi.User{ID: "u1", Email: req.Email, Nom: req.Nom})
	}))
	defer server.Close()

	store := session.NewStore()
	service := NewService(api.NewClient(server.URL), store, nil)

	user, err := service.Register(context.Background(), pkgapi.RegisterRequest{
		Email:    " awa@example.com ",
		Password: "correct-horse",
		Nom:      "Diallo",
		Prenom:   "Awa",
	})

	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	// регистрация не начинает сессию
	assert.False(t, store.State().IsAuthenticated())
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name   string
		req    pkgapi.RegisterRequest
		errMsg string
	}{
		{
			name:   "invalid email",
			req:    pkgapi.RegisterRequest{Email: "awa", Password: "correct-horse"},
			errMsg: "invalid email",
		},
		{
			name:   "short password",
			req:    pkgapi.RegisterRequest{Email: "awa@example.com", Password: "short"},
			errMsg: "invalid password",
		},
		{
			name:   "invalid phone",
			req:    pkgapi.RegisterRequest{Email: "awa@example.com", Password: "correct-horse", Telephone: "call me"},
			errMsg: "invalid telephone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected")
			}))
			defer server.Close()

			service := NewService(api.NewClient(server.URL), session.NewStore(), nil)
			_, err := service.Register(context.Background(), tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestService_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pkgapi.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","message":"invalid credentials","code":"unauthorized"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(pkgapi.TokenResponse{AccessToken: "a1", RefreshToken: "b1", ExpiresIn: 900})
	}))
	defer server.Close()

	t.Run("success", func(t *testing.T) {
		store := session.NewStore()
		service := NewService(api.NewClient(server.URL), store, nil)

		require.NoError(t, service.Login(context.Background(), "awa@example.com", "correct-horse"))

		state := service.Session()
		require.True(t, state.IsAuthenticated())
		assert.Equal(t, "a1", *state.AccessToken)
		assert.Equal(t, "b1", *state.RefreshToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := session.NewStore()
		service := NewService(api.NewClient(server.URL), store, nil)

		err := service.Login(context.Background(), "awa@example.com", "wrong-password")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
		assert.Contains(t, err.Error(), "invalid credentials")
		assert.False(t, store.State().IsAuthenticated())
	})

	t.Run("invalid email", func(t *testing.T) {
		service := NewService(api.NewClient(server.URL), session.NewStore(), nil)
		err := service.Login(context.Background(), "not-an-email", "correct-horse")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid email")
	})
}

func TestService_Logout(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "server accepts", status: http.StatusOK},
		{name: "server rejects expired token", status: http.StatusUnauthorized},
		{name: "server error", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logoutCalls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logoutCalls++
				assert.Equal(t, api.PathLogout, r.URL.Path)
				assert.Equal(t, "Bearer a1", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"logged out"}`))
			}))
			defer server.Close()

			store := newTestStore(t, "a1", "b1")
			service := NewService(api.NewClient(server.URL), store, nil)

			service.Logout(context.Background())

			assert.Equal(t, 1, logoutCalls)
			assert.False(t, store.State().IsAuthenticated())
		})
	}
}

func TestService_Logout_RefreshesExpiredToken(t *testing.T) {
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, api.PathLogout, r.URL.Path)
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		if r.Header.Get("Authorization") == "Bearer a1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"logged out"}`))
	}))
	defer server.Close()

	store := newTestStore(t, "a1", "b1")
	mock := &TokenAPIMock{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error) {
			return tokenPair("a2", "b2"), nil
		},
	}
	refresher := NewRefresher(mock, store)
	service := NewService(api.NewClient(server.URL), store, nil, WithServiceRefresher(refresher))

	service.Logout(context.Background())

	require.Len(t, mock.RefreshCalls(), 1)
	assert.Equal(t, "b1", mock.RefreshCalls()[0].RefreshToken)
	assert.Equal(t, []string{"Bearer a1", "Bearer a2"}, authHeaders)
	assert.False(t, store.State().IsAuthenticated())
}

func TestService_Logout_RefreshRejected(t *testing.T) {
	var logoutCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logoutCalls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer server.Close()

	store := newTestStore(t, "a1", "b1")
	mock := &TokenAPIMock{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error) {
			return nil, &api.Error{Status: http.StatusUnauthorized, Message: "invalid refresh token"}
		},
	}
	service := NewService(api.NewClient(server.URL), store, nil, WithServiceRefresher(NewRefresher(mock, store)))

	service.Logout(context.Background())

	// повтора нет: refresh не удался
	assert.Equal(t, 1, logoutCalls)
	assert.Len(t, mock.RefreshCalls(), 1)
	assert.False(t, store.State().IsAuthenticated())
}

func TestService_Logout_ServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	store := newTestStore(t, "a1", "b1")
	NewService(api.NewClient(url), store, nil).Logout(context.Background())

	assert.False(t, store.State().IsAuthenticated())
}

func TestService_Logout_WithoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	NewService(api.NewClient(server.URL), session.NewStore(), nil).Logout(context.Background())
}

func TestService_Restore(t *testing.T) {
	store := session.NewStore()
	service := NewService(api.NewClient("http://localhost"), store, nil)

	// без persister восстанавливать нечего
	require.NoError(t, service.Restore(context.Background()))
	assert.False(t, service.Session().IsAuthenticated())
}
