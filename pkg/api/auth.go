package api

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Nom       string `json:"nom,omitempty"`
	Prenom    string `json:"prenom,omitempty"`
	Telephone string `json:"telephone,omitempty"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest представляет запрос на обмен refresh token на новую пару токенов
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`         // JWT access token
	RefreshToken string `json:"refreshToken"`        // одноразовый refresh token
	ExpiresIn    int64  `json:"expiresIn,omitempty"` // время жизни access token в секундах
}

// MessageResponse is a plain acknowledgement returned by logout and similar endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки (HTTP status text)
	Message string `json:"message,omitempty"` // сообщение для пользователя
	Code    string `json:"code,omitempty"`    // машинно-читаемый код ошибки
}

// Error codes returned in ErrorResponse.Code.
const (
	CodeUnauthorized       = "unauthorized"
	CodeTokenExpired       = "token_expired"
	CodeInvalidRefresh     = "invalid_refresh_token"
	CodeValidation         = "validation_error"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeVehicleUnavailable = "vehicle_unavailable"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)
