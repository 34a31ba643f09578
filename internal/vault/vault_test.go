package vault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flipperbot/internal/vault"
	"github.com/dmitrymomot/flipperbot/pkg/secrets"
)

func newVault(t *testing.T) *vault.Vault {
	t.Helper()
	key, err := secrets.GenerateKey()
	require.NoError(t, err)
	cipher, err := secrets.NewCipher(key)
	require.NoError(t, err)
	return vault.New(cipher)
}

func TestStoreMicrosoft(t *testing.T) {
	t.Parallel()

	v := newVault(t)
	require.NoError(t, v.StoreMicrosoft("42", "access-token", "refresh-token"))

	creds, err := v.Get("42")
	require.NoError(t, err)
	assert.Equal(t, vault.AuthTypeMicrosoft, creds.AuthType)
	assert.Equal(t, "access-token", creds.AccessToken)
	assert.Equal(t, "refresh-token", creds.RefreshToken)
	assert.False(t, creds.CreatedAt.IsZero())
}

func TestStoreManual(t *testing.T) {
	t.Parallel()

	v := newVault(t)
	require.NoError(t, v.StoreManual("7", "bob@example.com", "hunter2", "OTPSECRET"))

	creds, err := v.Get("7")
	require.NoError(t, err)
	assert.Equal(t, vault.AuthTypeManual, creds.AuthType)
	assert.Equal(t, "bob@example.com", creds.Email)
	assert.Equal(t, "hunter2", creds.Password)
	assert.Equal(t, "OTPSECRET", creds.OTPSecret)
}

func TestStoreReplacesPreviousEntry(t *testing.T) {
	t.Parallel()

	v := newVault(t)
	require.NoError(t, v.StoreMicrosoft("42", "old", "old-refresh"))

	first, err := v.Get("42")
	require.NoError(t, err)

	require.NoError(t, v.StoreMicrosoft("42", "new", "new-refresh"))

	second, err := v.Get("42")
	require.NoError(t, err)
	assert.Equal(t, "new", second.AccessToken)
	assert.Equal(t, first.CreatedAt, second.CreatedAt, "creation time survives replacement")
	assert.Equal(t, 1, v.Len())
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	v := newVault(t)
	_, err := v.Get("nobody")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}

func TestEmptyUserID(t *testing.T) {
	t.Parallel()

	v := newVault(t)
	assert.ErrorIs(t, v.StoreMicrosoft("", "a", "r"), vault.ErrEmptyUserID)
	assert.ErrorIs(t, v.StoreManual("", "e", "p", "s"), vault.ErrEmptyUserID)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	v := newVault(t)
	require.NoError(t, v.StoreMicrosoft("42", "access", "refresh"))

	assert.True(t, v.Delete("42"))
	assert.False(t, v.Delete("42"))

	_, err := v.Get("42")
	assert.ErrorIs(t, err, vault.ErrNotFound)
}
