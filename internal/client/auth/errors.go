package auth

import "errors"

var (
	// ErrNotAuthenticated is returned when an authenticated call is made with an empty token store.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionExpired означает что refresh не удался и хранилище токенов очищено.
	// The screen layer reacts by sending the user back to the login screen.
	ErrSessionExpired = errors.New("session expired")
)
