package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/autopark/internal/client/storage"
	"github.com/iudanet/autopark/internal/client/storage/boltdb"
)

func createTestVault(t *testing.T, passphrase string) (*Vault, *boltdb.Storage) {
	t.Helper()

	db, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewVault(db, passphrase), db
}

func TestVault_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	vault, db := createTestVault(t, "device-passphrase")

	_, err := vault.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	creds := Credentials{AccessToken: "access-token", RefreshToken: "refresh-token"}
	require.NoError(t, vault.Save(ctx, creds))

	// На диске токены лежат в зашифрованном виде
	raw, err := db.GetAuth(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, creds.AccessToken, raw.AccessToken)
	assert.NotEqual(t, creds.RefreshToken, raw.RefreshToken)
	assert.NotEmpty(t, raw.Salt)
	assert.NotZero(t, raw.SavedAt)

	loaded, err := vault.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)

	require.NoError(t, vault.Delete(ctx))
	_, err = vault.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	// Повторное удаление не ошибка
	require.NoError(t, vault.Delete(ctx))
}

func TestVault_SaltIsReused(t *testing.T) {
	ctx := context.Background()
	vault, db := createTestVault(t, "device-passphrase")

	require.NoError(t, vault.Save(ctx, Credentials{AccessToken: "a1", RefreshToken: "b1"}))
	first, err := db.GetAuth(ctx)
	require.NoError(t, err)

	require.NoError(t, vault.Save(ctx, Credentials{AccessToken: "a2", RefreshToken: "b2"}))
	second, err := db.GetAuth(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Salt, second.Salt)

	// Новый экземпляр с той же фразой читает данные
	reopened := NewVault(db, "device-passphrase")
	creds, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{AccessToken: "a2", RefreshToken: "b2"}, creds)
}

func TestVault_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	vault, db := createTestVault(t, "right")
	require.NoError(t, vault.Save(ctx, Credentials{AccessToken: "a", RefreshToken: "b"}))

	_, err := NewVault(db, "wrong").Load(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestVault_SwappedFieldsAreRejected(t *testing.T) {
	ctx := context.Background()
	vault, db := createTestVault(t, "device-passphrase")
	require.NoError(t, vault.Save(ctx, Credentials{AccessToken: "a", RefreshToken: "b"}))

	raw, err := db.GetAuth(ctx)
	require.NoError(t, err)
	require.NoError(t, db.SaveAuth(ctx, &storage.AuthData{
		AccessToken:  raw.RefreshToken,
		RefreshToken: raw.AccessToken,
		Salt:         raw.Salt,
	}))

	_, err = vault.Load(ctx)
	assert.Error(t, err)
}

func TestStore_WithVault(t *testing.T) {
	ctx := context.Background()
	vault, db := createTestVault(t, "device-passphrase")

	store := NewStore(WithPersister(vault))
	require.NoError(t, store.Set(ctx, Credentials{AccessToken: "a", RefreshToken: "b"}))

	restored := NewStore(WithPersister(NewVault(db, "device-passphrase")))
	require.NoError(t, restored.Load(ctx))
	assert.True(t, restored.State().IsAuthenticated())

	restored.Clear(ctx)
	_, err := db.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}
