package models

import "time"

// User представляет пользователя в системе
type User struct {
	ID           string     `json:"id"`            // UUID пользователя
	Email        string     `json:"email"`         // уникальный email, в нижнем регистре
	PasswordHash string     `json:"password_hash"` // bcrypt хеш пароля
	Nom          string     `json:"nom"`           // фамилия
	Prenom       string     `json:"prenom"`        // имя
	Telephone    string     `json:"telephone"`
	PhotoURL     string     `json:"photo_url"`
	CreatedAt    time.Time  `json:"created_at"` // время создания
	UpdatedAt    time.Time  `json:"updated_at"` // время последнего обновления
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// RefreshToken представляет refresh token пользователя
// Токен одноразовый: /auth/refresh удаляет его и выдает новый.
type RefreshToken struct {
	Token     string    `json:"token"`      // случайные 32 байта, base64url
	UserID    string    `json:"user_id"`    // ID пользователя
	ExpiresAt time.Time `json:"expires_at"` // время истечения
	CreatedAt time.Time `json:"created_at"` // время создания
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
