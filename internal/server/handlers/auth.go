package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/autopark/internal/models"
	"github.com/iudanet/autopark/internal/server/storage"
	"github.com/iudanet/autopark/internal/validation"
	"github.com/iudanet/autopark/pkg/api"
)

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger        *slog.Logger
	userStorage   storage.UserStorage
	tokenStorage  storage.TokenStorage
	notifications storage.NotificationStorage
	jwtConfig     JWTConfig
	bcryptCost    int
}

// NewAuthHandler создает новый handler для авторизации.
// notifications may be nil; then no welcome notification is created.
func NewAuthHandler(
	logger *slog.Logger,
	userStorage storage.UserStorage,
	tokenStorage storage.TokenStorage,
	notifications storage.NotificationStorage,
	jwtConfig JWTConfig,
) *AuthHandler {
	return &AuthHandler{
		logger:        logger,
		userStorage:   userStorage,
		tokenStorage:  tokenStorage,
		notifications: notifications,
		jwtConfig:     jwtConfig,
		bcryptCost:    bcrypt.DefaultCost,
	}
}

// Register обрабатывает POST /auth/register
// Регистрация нового пользователя, сессию не открывает
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	for _, check := range []error{
		validation.ValidateEmail(req.Email),
		validation.ValidatePassword(req.Password),
		validation.ValidatePhone(req.Telephone),
	} {
		if check != nil {
			SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, check.Error())
			return
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		internalError(w, r, h.logger, "failed to hash password", err)
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Nom:          strings.TrimSpace(req.Nom),
		Prenom:       strings.TrimSpace(req.Prenom),
		Telephone:    strings.TrimSpace(req.Telephone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Сохраняем в БД
	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists")
			SendError(w, h.logger, http.StatusConflict, api.CodeConflict, "email already registered")
			return
		}
		internalError(w, r, h.logger, "failed to create user", err)
		return
	}

	h.welcome(ctx, user)

	h.logger.InfoContext(ctx, "user registered successfully", slog.String("user_id", user.ID))

	SendJSON(w, h.logger, toAPIUser(user), http.StatusCreated)
}

func (h *AuthHandler) welcome(ctx context.Context, user *models.User) {
	if h.notifications == nil {
		return
	}
	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Title:     "Bienvenue sur AutoPark",
		Body:      "Votre compte est prêt. Réservez votre premier véhicule.",
		CreatedAt: user.CreatedAt,
	}
	if err := h.notifications.CreateNotification(ctx, n); err != nil {
		h.logger.WarnContext(ctx, "failed to create welcome notification", slog.Any("error", err))
	}
}

// Login обрабатывает POST /auth/login
// Аутентификация пользователя
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "email and password are required")
		return
	}

	// Получаем пользователя из БД
	user, err := h.userStorage.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found")
			SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "invalid credentials")
			return
		}
		internalError(w, r, h.logger, "failed to get user", err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("user_id", user.ID))
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "invalid credentials")
		return
	}

	resp, err := h.issueTokens(ctx, user)
	if err != nil {
		internalError(w, r, h.logger, "failed to issue tokens", err)
		return
	}

	// Обновляем last_login
	if err := h.userStorage.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in successfully", slog.String("user_id", user.ID))

	SendJSON(w, h.logger, resp, http.StatusOK)
}

// Refresh обрабатывает POST /auth/refresh
// Обмен refresh token на новую пару. Предъявленный токен удаляется.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		SendError(w, h.logger, http.StatusBadRequest, api.CodeValidation, "invalid request body")
		return
	}
	if req.RefreshToken == "" {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeInvalidRefresh, "refresh token is required")
		return
	}

	storedToken, err := h.tokenStorage.ConsumeRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			h.logger.WarnContext(ctx, "refresh token not found")
			SendError(w, h.logger, http.StatusUnauthorized, api.CodeInvalidRefresh, "invalid refresh token")
			return
		}
		internalError(w, r, h.logger, "failed to consume refresh token", err)
		return
	}

	// Проверяем срок действия
	if storedToken.Expired(time.Now()) {
		h.logger.WarnContext(ctx, "refresh token expired", slog.String("user_id", storedToken.UserID))
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeInvalidRefresh, "refresh token expired")
		return
	}

	user, err := h.userStorage.GetUserByID(ctx, storedToken.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			SendError(w, h.logger, http.StatusUnauthorized, api.CodeInvalidRefresh, "invalid refresh token")
			return
		}
		internalError(w, r, h.logger, "failed to get user", err)
		return
	}

	resp, err := h.issueTokens(ctx, user)
	if err != nil {
		internalError(w, r, h.logger, "failed to issue tokens", err)
		return
	}

	h.logger.InfoContext(ctx, "tokens refreshed successfully", slog.String("user_id", user.ID))

	SendJSON(w, h.logger, resp, http.StatusOK)
}

// Logout обрабатывает POST /auth/logout (за AuthMiddleware)
// Удаляет все refresh token пользователя
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		SendError(w, h.logger, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
		return
	}

	// Удаляем все refresh tokens пользователя
	deletedCount, err := h.tokenStorage.DeleteUserTokens(ctx, userID)
	if err != nil {
		internalError(w, r, h.logger, "failed to delete user tokens", err)
		return
	}

	h.logger.InfoContext(ctx, "user logged out successfully",
		slog.String("user_id", userID),
		slog.Int("tokens_deleted", deletedCount))

	SendJSON(w, h.logger, api.MessageResponse{Message: "logged out"}, http.StatusOK)
}

// issueTokens выпускает access token и сохраняет новый refresh token
func (h *AuthHandler) issueTokens(ctx context.Context, user *models.User) (*api.TokenResponse, error) {
	accessToken, expiresIn, err := GenerateAccessToken(h.jwtConfig, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, expiresAt, err := GenerateRefreshToken(h.jwtConfig)
	if err != nil {
		return nil, err
	}

	token := &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := h.tokenStorage.SaveRefreshToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &api.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func toAPIUser(u *models.User) api.User {
	return api.User{
		ID:        u.ID,
		Email:     u.Email,
		Nom:       u.Nom,
		Prenom:    u.Prenom,
		Telephone: u.Telephone,
		PhotoURL:  u.PhotoURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
