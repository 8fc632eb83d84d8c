package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/iudanet/autopark/internal/client/session"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

//go:generate moq -out tokenapi_mock.go . TokenAPI

// TokenAPI exchanges a refresh token for a new credential pair.
// *api.Client implements it.
type TokenAPI interface {
	Refresh(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error)
}

// State is the refresh coordinator state.
type State int32

const (
	StateIdle State = iota
	StateRefreshing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// все параллельные refresh сливаются в один вызов
const flightKey = "refresh"

type refreshMetrics struct {
	refreshes *prometheus.CounterVec
	coalesced prometheus.Counter
}

func newRefreshMetrics(reg prometheus.Registerer) *refreshMetrics {
	// promauto.With(nil) создает метрики без регистрации
	factory := promauto.With(reg)
	return &refreshMetrics{
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopark_client_refresh_total",
				Help: "Refresh network calls by outcome",
			},
			[]string{"outcome"},
		),
		coalesced: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "autopark_client_refresh_coalesced_total",
				Help: "Refresh requests served without their own network call",
			},
		),
	}
}

// Refresher coordinates token refresh for every caller sharing a session.Store.
//
// At most one refresh network call is in flight at a time. Callers that detect
// an expired access token while a refresh is running wait for it and share its
// outcome. A caller holding an access token that was already replaced gets the
// current pair without a network call.
type Refresher struct {
	api     TokenAPI
	store   *session.Store
	logger  *slog.Logger
	metrics *refreshMetrics
	group   singleflight.Group
	state   atomic.Int32
	last    atomic.Int32
}

// RefresherOption configures a Refresher.
type RefresherOption func(*refresherConfig)

type refresherConfig struct {
	logger   *slog.Logger
	registry prometheus.Registerer
}

// WithRefresherLogger sets the logger.
func WithRefresherLogger(logger *slog.Logger) RefresherOption {
	return func(c *refresherConfig) {
		c.logger = logger
	}
}

// WithRegisterer registers the refresh counters on reg.
func WithRegisterer(reg prometheus.Registerer) RefresherOption {
	return func(c *refresherConfig) {
		c.registry = reg
	}
}

// NewRefresher создает координатор обновления токенов
func NewRefresher(tokenAPI TokenAPI, store *session.Store, opts ...RefresherOption) *Refresher {
	cfg := refresherConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Refresher{
		api:     tokenAPI,
		store:   store,
		logger:  cfg.logger,
		metrics: newRefreshMetrics(cfg.registry),
	}
}

// Store returns the token store the refresher writes to.
func (r *Refresher) Store() *session.Store {
	return r.store
}

// State reports whether a refresh is in flight.
func (r *Refresher) State() State {
	return State(r.state.Load())
}

// LastOutcome returns StateSucceeded or StateFailed for the most recent
// refresh network call, StateIdle if none was made yet.
func (r *Refresher) LastOutcome() State {
	return State(r.last.Load())
}

// Refresh returns a fresh credential pair.
//
// failedAccessToken is the access token the server just rejected. If the
// store already holds a different one, that pair is returned as is.
// On failure the store is cleared and the error matches ErrSessionExpired.
// The network call is not bound to ctx cancellation; ctx only limits how
// long this caller waits.
func (r *Refresher) Refresh(ctx context.Context, failedAccessToken string) (session.Credentials, error) {
	creds, ok := r.store.Credentials()
	if !ok {
		return session.Credentials{}, ErrSessionExpired
	}
	if failedAccessToken != "" && creds.AccessToken != failedAccessToken {
		r.metrics.coalesced.Inc()
		return creds, nil
	}

	var leader bool
	detached := context.WithoutCancel(ctx)
	ch := r.group.DoChan(flightKey, func() (any, error) {
		leader = true
		return r.refresh(detached, creds)
	})

	select {
	case res := <-ch:
		if !leader {
			r.metrics.coalesced.Inc()
		}
		if res.Err != nil {
			return session.Credentials{}, res.Err
		}
		return res.Val.(session.Credentials), nil
	case <-ctx.Done():
		return session.Credentials{}, ctx.Err()
	}
}

// refresh выполняется внутри singleflight, только одна копия одновременно
func (r *Refresher) refresh(ctx context.Context, seen session.Credentials) (session.Credentials, error) {
	current, ok := r.store.Credentials()
	if !ok {
		return session.Credentials{}, ErrSessionExpired
	}
	// пара уже обновлена предыдущим полетом
	if current.RefreshToken != seen.RefreshToken {
		r.metrics.coalesced.Inc()
		return current, nil
	}

	r.state.Store(int32(StateRefreshing))
	defer r.state.Store(int32(StateIdle))

	resp, err := r.api.Refresh(ctx, current.RefreshToken)
	if err != nil {
		r.last.Store(int32(StateFailed))
		r.metrics.refreshes.WithLabelValues("failure").Inc()
		r.store.CompareAndClear(ctx, current)
		r.logger.WarnContext(ctx, "token refresh failed, session cleared", slog.Any("error", err))
		return session.Credentials{}, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	next := session.Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	swapped, err := r.store.CompareAndSwap(ctx, current, next)
	if err != nil {
		r.last.Store(int32(StateFailed))
		r.metrics.refreshes.WithLabelValues("failure").Inc()
		r.store.CompareAndClear(ctx, current)
		return session.Credentials{}, fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	r.last.Store(int32(StateSucceeded))
	r.metrics.refreshes.WithLabelValues("success").Inc()
	r.logger.DebugContext(ctx, "token refreshed")

	if !swapped {
		// пока шел запрос, пользователь вышел или вошел заново
		latest, ok := r.store.Credentials()
		if !ok {
			return session.Credentials{}, ErrSessionExpired
		}
		return latest, nil
	}
	return next, nil
}
