package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iudanet/autopark/internal/client/storage"
	"github.com/iudanet/autopark/internal/crypto"
)

// Associated data binds each ciphertext to its field, so the two tokens cannot be swapped.
var (
	aadAccess  = []byte("access_token")
	aadRefresh = []byte("refresh_token")
)

// Vault implements Persister on top of storage.AuthStorage.
// Tokens are sealed with AES-256-GCM under a key derived from a device
// passphrase; the salt is stored alongside the ciphertext.
type Vault struct {
	storage    storage.AuthStorage
	passphrase string
	salt       string
	key        []byte
	mu         sync.Mutex
}

// Compile-time check that Vault implements Persister
var _ Persister = (*Vault)(nil)

// NewVault creates a Vault. passphrase must not be empty.
func NewVault(st storage.AuthStorage, passphrase string) *Vault {
	return &Vault{
		storage:    st,
		passphrase: passphrase,
	}
}

// Save шифрует токены и сохраняет их в хранилище
func (v *Vault) Save(ctx context.Context, creds Credentials) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	key, salt, err := v.keyForSave(ctx)
	if err != nil {
		return err
	}

	access, err := crypto.SealToBase64(creds.AccessToken, key, aadAccess)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh, err := crypto.SealToBase64(creds.RefreshToken, key, aadRefresh)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	return v.storage.SaveAuth(ctx, &storage.AuthData{
		AccessToken:  access,
		RefreshToken: refresh,
		Salt:         salt,
		SavedAt:      time.Now().Unix(),
	})
}

// Load загружает и расшифровывает токены
func (v *Vault) Load(ctx context.Context) (Credentials, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := v.storage.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return Credentials{}, ErrNoSession
		}
		return Credentials{}, fmt.Errorf("failed to read persisted session: %w", err)
	}

	key, err := v.keyForSalt(data.Salt)
	if err != nil {
		return Credentials{}, err
	}

	access, err := crypto.OpenFromBase64(data.AccessToken, key, aadAccess)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refresh, err := crypto.OpenFromBase64(data.RefreshToken, key, aadRefresh)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	return Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

// Delete removes persisted credentials. Deleting nothing is not an error.
func (v *Vault) Delete(ctx context.Context) error {
	if err := v.storage.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete persisted session: %w", err)
	}
	return nil
}

// keyForSave reuses the cached key or the salt already on disk; a fresh
// install gets a new salt. Argon2 runs at most once per salt.
func (v *Vault) keyForSave(ctx context.Context) ([]byte, string, error) {
	if v.key != nil {
		return v.key, v.salt, nil
	}

	if data, err := v.storage.GetAuth(ctx); err == nil && data.Salt != "" {
		key, err := v.keyForSalt(data.Salt)
		if err == nil {
			return key, data.Salt, nil
		}
	}

	salt, err := crypto.GenerateSaltBase64()
	if err != nil {
		return nil, "", err
	}
	key, err := v.keyForSalt(salt)
	if err != nil {
		return nil, "", err
	}
	return key, salt, nil
}

func (v *Vault) keyForSalt(salt string) ([]byte, error) {
	if v.key != nil && v.salt == salt {
		return v.key, nil
	}

	key, err := crypto.DeriveVaultKeyFromBase64Salt(v.passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive vault key: %w", err)
	}
	v.key, v.salt = key, salt
	return key, nil
}
