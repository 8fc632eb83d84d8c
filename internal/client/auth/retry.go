package auth

import (
	"context"

	"github.com/iudanet/autopark/internal/client/api"
)

// WithRefresh runs call with the current access token.
//
// If call fails with 401 or 403 the token pair is refreshed and call is
// retried exactly once with the new access token; that outcome is returned
// as is. A failed refresh returns an error matching ErrSessionExpired and
// call is not retried. Any other error is returned immediately.
func WithRefresh[T any](ctx context.Context, r *Refresher, call func(ctx context.Context, accessToken string) (T, error)) (T, error) {
	var zero T

	creds, ok := r.store.Credentials()
	if !ok {
		return zero, ErrNotAuthenticated
	}

	result, err := call(ctx, creds.AccessToken)
	if err == nil || !api.IsAuthError(err) {
		return result, err
	}

	fresh, err := r.Refresh(ctx, creds.AccessToken)
	if err != nil {
		return zero, err
	}

	return call(ctx, fresh.AccessToken)
}

// Do is WithRefresh for calls without a result value.
func (r *Refresher) Do(ctx context.Context, call func(ctx context.Context, accessToken string) error) error {
	_, err := WithRefresh(ctx, r, func(ctx context.Context, accessToken string) (struct{}, error) {
		return struct{}{}, call(ctx, accessToken)
	})
	return err
}
