// Package session holds the credential pair of the signed-in user.
//
// A Store is created once at application start, filled at login, replaced by
// the refresh coordinator and cleared at logout. Only the auth package writes to it.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrPartialCredentials is returned by Store.Set when one of the tokens is empty.
var ErrPartialCredentials = errors.New("access and refresh tokens must both be set")

// ErrNoSession is returned by a Persister when nothing was persisted.
var ErrNoSession = errors.New("no persisted session")

// Credentials is the access/refresh token pair of an authenticated session.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Complete reports whether both tokens are present.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// AuthState is a snapshot of the store. Both fields are nil or both are set.
type AuthState struct {
	AccessToken  *string
	RefreshToken *string
}

// IsAuthenticated reports whether a credential pair is present.
func (s AuthState) IsAuthenticated() bool {
	return s.AccessToken != nil && s.RefreshToken != nil
}

// Persister saves the credential pair across restarts.
type Persister interface {
	Save(ctx context.Context, creds Credentials) error
	// Load returns ErrNoSession if nothing is persisted.
	Load(ctx context.Context) (Credentials, error)
	Delete(ctx context.Context) error
}

// Store holds the current credential pair. It is safe for concurrent use.
type Store struct {
	persister Persister
	logger    *slog.Logger
	creds     *Credentials
	mu        sync.RWMutex
	// persistMu упорядочивает записи на диск, чтобы последней всегда сохранялась актуальная пара
	persistMu sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPersister enables write-through persistence.
func WithPersister(p Persister) StoreOption {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the logger used to report persistence failures.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore создает пустое хранилище токенов
func NewStore(opts ...StoreOption) *Store {
	s := &Store{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credentials returns the current pair and whether one is present.
func (s *Store) Credentials() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil {
		return Credentials{}, false
	}
	return *s.creds, true
}

// State returns a snapshot of the store.
func (s *Store) State() AuthState {
	creds, ok := s.Credentials()
	if !ok {
		return AuthState{}
	}
	return AuthState{AccessToken: &creds.AccessToken, RefreshToken: &creds.RefreshToken}
}

// Set replaces both tokens at once.
// A persistence failure is logged; the in-memory pair is updated regardless,
// since after a refresh the new pair is the only one the server still accepts.
func (s *Store) Set(ctx context.Context, creds Credentials) error {
	if !creds.Complete() {
		return ErrPartialCredentials
	}

	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// Clear drops both tokens. Persisted credentials are deleted as well.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.creds = nil
	s.mu.Unlock()

	s.persist(ctx)
}

// CompareAndSwap replaces the pair only if the store still holds prev.
// It reports whether the swap happened.
func (s *Store) CompareAndSwap(ctx context.Context, prev, next Credentials) (bool, error) {
	if !next.Complete() {
		return false, ErrPartialCredentials
	}

	s.mu.Lock()
	if s.creds == nil || *s.creds != prev {
		s.mu.Unlock()
		return false, nil
	}
	s.creds = &next
	s.mu.Unlock()

	s.persist(ctx)
	return true, nil
}

// CompareAndClear clears the store only if it still holds prev.
func (s *Store) CompareAndClear(ctx context.Context, prev Credentials) bool {
	s.mu.Lock()
	if s.creds == nil || *s.creds != prev {
		s.mu.Unlock()
		return false
	}
	s.creds = nil
	s.mu.Unlock()

	s.persist(ctx)
	return true
}

// Load restores persisted credentials. Without a persister, or when nothing
// was persisted, the store stays empty and Load returns nil.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	creds, err := s.persister.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}
	if !creds.Complete() {
		return ErrPartialCredentials
	}

	s.mu.Lock()
	s.creds = &creds
	s.mu.Unlock()

	return nil
}

// persist записывает актуальное состояние памяти через persister
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	creds, ok := s.Credentials()
	if !ok {
		if err := s.persister.Delete(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to delete persisted session", slog.Any("error", err))
		}
		return
	}

	if err := s.persister.Save(ctx, creds); err != nil {
		s.logger.WarnContext(ctx, "failed to persist session", slog.Any("error", err))
	}
}
