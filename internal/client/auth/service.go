package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/session"
	"github.com/iudanet/autopark/internal/validation"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// Compile-time check that *api.Client implements TokenAPI
var _ TokenAPI = (*api.Client)(nil)

// Service предоставляет функции авторизации
// Login and logout are the only writers of the token store besides the Refresher.
type Service struct {
	apiClient *api.Client
	store     *session.Store
	refresher *Refresher
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceRefresher lets Logout refresh an expired access token so the
// server still revokes the session.
func WithServiceRefresher(r *Refresher) ServiceOption {
	return func(s *Service) {
		s.refresher = r
	}
}

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, store *session.Store, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		apiClient: apiClient,
		store:     store,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register регистрирует нового пользователя. The session is not started;
// call Login afterwards.
func (s *Service) Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.User, error) {
	req.Email = strings.TrimSpace(req.Email)

	// Валидация входных данных
	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}
	if err := validation.ValidatePhone(req.Telephone); err != nil {
		return nil, fmt.Errorf("invalid telephone: %w", err)
	}

	user, err := s.apiClient.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return user, nil
}

// Login выполняет аутентификацию и сохраняет пару токенов
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)

	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if password == "" {
		return fmt.Errorf("invalid password: password cannot be empty")
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	creds := session.Credentials{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := s.store.Set(ctx, creds); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	s.logger.InfoContext(ctx, "logged in", slog.String("email", email))
	return nil
}

// Logout выполняет выход из системы
// The server is notified best effort; local credentials are always cleared.
func (s *Service) Logout(ctx context.Context) {
	creds, ok := s.store.Credentials()
	if !ok {
		s.logger.DebugContext(ctx, "logout without session")
		return
	}

	if err := s.revoke(ctx, creds); err != nil {
		// Не прерываем процесс, если сервер недоступен
		s.logger.WarnContext(ctx, "failed to logout on server", slog.Any("error", err))
	}

	// Всегда удаляем локальные данные, даже если сервер недоступен
	s.store.Clear(ctx)
}

// revoke вызывает POST /auth/logout; с refresher истекший access token сначала обновляется
func (s *Service) revoke(ctx context.Context, creds session.Credentials) error {
	logout := func(ctx context.Context, accessToken string) error {
		_, err := s.apiClient.Logout(ctx, accessToken)
		return err
	}
	if s.refresher == nil {
		return logout(ctx, creds.AccessToken)
	}
	return s.refresher.Do(ctx, logout)
}

// Restore loads persisted credentials into the store at application start.
func (s *Service) Restore(ctx context.Context) error {
	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	return nil
}

// Session returns a snapshot of the authentication state.
func (s *Service) Session() session.AuthState {
	return s.store.State()
}
