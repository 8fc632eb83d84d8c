// Package profile manages the signed-in user's profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/iudanet/autopark/internal/client/api"
	"github.com/iudanet/autopark/internal/client/auth"
	"github.com/iudanet/autopark/internal/client/optimistic"
	"github.com/iudanet/autopark/internal/validation"
	pkgapi "github.com/iudanet/autopark/pkg/api"
)

// ErrEmptyUpdate is returned by Update when no field is set.
var ErrEmptyUpdate = errors.New("nothing to update")

// MaxPhotoSize ограничение на размер загружаемого фото
const MaxPhotoSize = 5 << 20

// Service предоставляет операции над профилем пользователя
type Service struct {
	apiClient *api.Client
	refresher *auth.Refresher
	avatar    *optimistic.Value[string]
	logger    *slog.Logger
}

// NewService создает сервис профиля
func NewService(apiClient *api.Client, refresher *auth.Refresher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		apiClient: apiClient,
		refresher: refresher,
		avatar:    optimistic.New(""),
		logger:    logger,
	}
}

// Avatar returns the displayed photo URL. During an upload it holds the local
// preview; it settles on the server URL or reverts when the upload fails.
func (s *Service) Avatar() *optimistic.Value[string] {
	return s.avatar
}

// Me загружает профиль текущего пользователя
func (s *Service) Me(ctx context.Context) (*pkgapi.User, error) {
	user, err := auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) (*pkgapi.User, error) {
		return s.apiClient.GetMe(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	// не затираем превью идущей загрузки
	if !s.avatar.IsPending() {
		s.avatar.Set(user.PhotoURL)
	}
	return user, nil
}

// Update изменяет поля профиля. Only non-nil fields are sent.
func (s *Service) Update(ctx context.Context, req pkgapi.UpdateUserRequest) (*pkgapi.User, error) {
	if req.Nom == nil && req.Prenom == nil && req.Telephone == nil {
		return nil, ErrEmptyUpdate
	}
	if req.Telephone != nil {
		if err := validation.ValidatePhone(*req.Telephone); err != nil {
			return nil, fmt.Errorf("invalid telephone: %w", err)
		}
	}

	return auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) (*pkgapi.User, error) {
		return s.apiClient.UpdateMe(ctx, token, req)
	})
}

// UploadPhoto загружает новое фото профиля (multipart, поле "photo").
// The avatar shows a local preview until the server answers.
func (s *Service) UploadPhoto(ctx context.Context, filename string, r io.Reader) (*pkgapi.User, error) {
	content, err := io.ReadAll(io.LimitReader(r, MaxPhotoSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("photo is empty")
	}
	if len(content) > MaxPhotoSize {
		return nil, fmt.Errorf("photo exceeds %d bytes", MaxPhotoSize)
	}

	// форма хранит содержимое в памяти и может быть отправлена повторно после refresh
	form := api.NewForm().File(pkgapi.PhotoField, filepath.Base(filename), content)

	pending := s.avatar.Apply(previewURL(filename))

	user, err := auth.WithRefresh(ctx, s.refresher, func(ctx context.Context, token string) (*pkgapi.User, error) {
		return s.apiClient.UploadPhoto(ctx, token, form)
	})
	if err != nil {
		pending.Rollback()
		s.logger.DebugContext(ctx, "photo upload failed, avatar reverted", slog.Any("error", err))
		return nil, err
	}

	pending.Commit(user.PhotoURL)
	return user, nil
}

// previewURL turns a local path into a URL the UI can show before upload completes.
func previewURL(filename string) string {
	if strings.Contains(filename, "://") {
		return filename
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		abs = filename
	}
	return "file://" + filepath.ToSlash(abs)
}
