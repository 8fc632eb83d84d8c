package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/autopark/internal/server/handlers"
	"github.com/iudanet/autopark/pkg/api"
)

// AuthMiddleware создает middleware для проверки JWT токена.
// Истекший токен получает код token_expired, любой другой отказ код unauthorized.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Извлекаем токен из заголовка Authorization
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.DebugContext(ctx, "missing Authorization header", slog.String("path", r.URL.Path))
				unauthorized(w, logger, api.CodeUnauthorized, "missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenString) == "" {
				logger.WarnContext(ctx, "invalid Authorization header format")
				unauthorized(w, logger, api.CodeUnauthorized, "invalid token format")
				return
			}

			// Валидируем токен
			claims, err := handlers.ValidateAccessToken(jwtConfig, strings.TrimSpace(tokenString))
			if err != nil {
				if handlers.IsTokenExpired(err) {
					logger.DebugContext(ctx, "access token expired")
					unauthorized(w, logger, api.CodeTokenExpired, "access token expired")
					return
				}
				logger.WarnContext(ctx, "invalid access token", slog.Any("error", err))
				unauthorized(w, logger, api.CodeUnauthorized, "invalid token")
				return
			}

			logger.DebugContext(ctx, "user authenticated", slog.String("user_id", claims.UserID))

			// Передаем запрос дальше с обновленным контекстом
			next.ServeHTTP(w, r.WithContext(handlers.WithUser(ctx, claims.UserID, claims.Email)))
		})
	}
}

func unauthorized(w http.ResponseWriter, logger *slog.Logger, code, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="autopark"`)
	handlers.SendError(w, logger, http.StatusUnauthorized, code, message)
}
