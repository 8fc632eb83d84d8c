package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/session"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

var errUnauthorized = &api.Error{Status: http.StatusUnauthorized, Message: "token expired", Code: pkgapi.CodeTokenExpired}

// recorder запоминает токены, с которыми вызывалась функция
type recorder struct {
	tokens []string
	mu     sync.Mutex
}

func (r *recorder) add(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens = append(r.tokens, token)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tokens...)
}

func TestWithRefresh_NoRefreshOnSuccess(t *testing.T) {
	store := newTestStore(t, "a1", "b1")
	mock := &TokenAPIMock{}
	r := NewRefresher(mock, store)

	calls := &recorder{}
	got, err := WithRefresh(context.Background(), r, func(ctx context.Context, token string) (string, error) {
		calls.add(token)
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, []string{"a1"}, calls.all())
	assert.Empty(t, mock.RefreshCalls())
}

func TestWithRefresh_NotAuthenticated(t *testing.T) {
	r := NewRefresher(&TokenAPIMock{}, session.NewStore())

	called := false
	_, err := WithRefresh(context.Background(), r, func(ctx context.Context, token string) (int, error) {
		called = true
		return 0, nil
	})

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, called)
}

func TestWithRefresh_RetriesOnceAfterRefresh(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			store := newTestStore(t, "a1", "b1")
			mock := &TokenAPIMock{
				RefreshFunc: func(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error) {
					return tokenPair("a2", "b2"), nil
				},
			}
			r := NewRefresher(mock, store)

			calls := &recorder{}
			got, err := WithRefresh(context.Background(), r, func(ctx context.Context, token string) (string, error) {
				calls.add(token)
				if token == "a1" {
					return "", &api.Error{Status: status, Message: "denied"}
				}
				return "profile", nil
			})

			require.NoError(t, err)
			assert.Equal(t, "profile", got)
			assert.Equal(t, []string{"a1", "a2"}, calls.all())
			assert.Len(t, mock.RefreshCalls(), 1)
		})
	}
}

func TestWithRefresh_RetryOutcomeReturnedAsIs(t *testing.T) {
	store := newTestStore(t, "a1", "b1")
	mock := &TokenAPIMock{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error) {
			return tokenPair("a2", "b2"), nil
		},
	}
	r := NewRefresher(mock, store)

	calls := &recorder{}
	err := r.Do(context.Background(), func(ctx context.Context, token string) error {
		calls.add(token)
		return errUnauthorized
	})

	// второй 401 не вызывает новый refresh
	assert.Equal(t, errUnauthorized, err)
	assert.Equal(t, []string{"a1", "a2"}, calls.all())
	assert.Len(t, mock.RefreshCalls(), 1)
	assert.True(t, store.State().IsAuthenticated())
}

func TestWithRefresh_RefreshFailureNoRetry(t *testing.T) {
	store := newTestStore(t, "a1", "b1")
	mock := &TokenAPIMock{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error) {
			return nil, &api.Error{Status: http.StatusUnauthorized, Message: "invalid refresh token"}
		},
	}
	r := NewRefresher(mock, store)

	calls := &recorder{}
	_, err := WithRefresh(context.Background(), r, func(ctx context.Context, token string) (string, error) {
		calls.add(token)
		return "", errUnauthorized
	})

	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, []string{"a1"}, calls.all())
	assert.Len(t, mock.RefreshCalls(), 1)
	assert.False(t, store.State().IsAuthenticated())
}

func TestWithRefresh_OtherErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "bad request", err: &api.Error{Status: http.StatusBadRequest, Message: "invalid nom"}},
		{name: "not found", err: &api.Error{Status: http.StatusNotFound, Message: "Not Found"}},
		{name: "server error", err: &api.Error{Status: http.StatusInternalServerError, Message: "boom"}},
		{name: "network", err: &api.Error{Message: "connection refused"}},
		{name: "plain error", err: errors.New("decode failed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, "a1", "b1")
			mock := &TokenAPIMock{}
			r := NewRefresher(mock, store)

			calls := &recorder{}
			err := r.Do(context.Background(), func(ctx context.Context, token string) error {
				calls.add(token)
				return tt.err
			})

			assert.Equal(t, tt.err, err)
			assert.Len(t, calls.all(), 1)
			assert.Empty(t, mock.RefreshCalls())
			assert.True(t, store.State().IsAuthenticated())
		})
	}
}

func TestWithRefresh_ConcurrentUnauthorized(t *testing.T) {
	const callers = 8

	store := newTestStore(t, "a1", "b1")

	// refresh отвечает только после того как все вызовы получили 401
	var rejected sync.WaitGroup
	rejected.Add(callers)
	mock := &TokenAPIMock{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error) {
			rejected.Wait()
			return tokenPair("a2", "b2"), nil
		},
	}
	r := NewRefresher(mock, store)

	calls := &recorder{}
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.Do(context.Background(), func(ctx context.Context, token string) error {
				calls.add(token)
				if token == "a1" {
					rejected.Done()
					return errUnauthorized
				}
				return nil
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, mock.RefreshCalls(), 1)

	var retried int
	for _, token := range calls.all() {
		if token != "a1" {
			assert.Equal(t, "a2", token)
			retried++
		}
	}
	assert.Equal(t, callers, retried)
}

// TestWithRefresh_UpdateProfileScenario: PUT /auth/users/me с истекшим токеном,
// refresh, повтор с новым токеном.
func TestWithRefresh_UpdateProfileScenario(t *testing.T) {
	var (
		puts      atomic.Int32
		refreshes atomic.Int32
	)

	mux := http.NewServeMux()
	mux.HandleFunc("PUT "+api.PathMe, func(w http.ResponseWriter, r *http.Request) {
		puts.Add(1)
		switch r.Header.Get("Authorization") {
		case "Bearer a2":
			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, map[string]string{"nom": "Diallo"}, req)
			_ = json.NewEncoder(w).Encode(pkgapi.User{ID: "u1", Email: "awa@example.com", Nom: "Diallo"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized","message":"token expired","code":"token_expired"}`))
		}
	})
	mux.HandleFunc("POST "+api.PathRefresh, func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		var req pkgapi.RefreshRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "b", req.RefreshToken)
		_ = json.NewEncoder(w).Encode(pkgapi.TokenResponse{AccessToken: "a2", RefreshToken: "b2"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := api.NewClient(server.URL)
	store := newTestStore(t, "a", "b")
	r := NewRefresher(client, store)

	nom := "Diallo"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := WithRefresh(ctx, r, func(ctx context.Context, token string) (*pkgapi.User, error) {
		return client.UpdateMe(ctx, token, pkgapi.UpdateUserRequest{Nom: &nom})
	})

	require.NoError(t, err)
	assert.Equal(t, "Diallo", user.Nom)
	assert.Equal(t, int32(2), puts.Load())
	assert.Equal(t, int32(1), refreshes.Load())

	creds, ok := store.Credentials()
	require.True(t, ok)
	assert.Equal(t, session.Credentials{AccessToken: "a2", RefreshToken: "b2"}, creds)
}
