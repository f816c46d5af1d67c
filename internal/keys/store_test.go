package keys

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestConfigStoreRoundTrip(t *testing.T) {
	store := &ConfigStore{}

	require.NoError(t, store.Put(DefaultAccount, "secret"))
	got, err := store.Get(DefaultAccount)
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, store.Delete(DefaultAccount))
	_, err = store.Get(DefaultAccount)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestKeyringStoreRoundTrip(t *testing.T) {
	keyring.MockInit()
	store := &KeyringStore{}

	_, err := store.Get(DefaultAccount)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, store.Put(DefaultAccount, "ghp_test"))
	got, err := store.Get(DefaultAccount)
	require.NoError(t, err)
	assert.Equal(t, "ghp_test", got)

	require.NoError(t, store.Delete(DefaultAccount))
	require.NoError(t, store.Delete(DefaultAccount), "deleting twice is a no-op")
}

func TestResolveTokenPrefersConfig(t *testing.T) {
	store := &ConfigStore{Tokens: map[string]string{DefaultAccount: "from-keyring"}}

	v := viper.New()
	assert.Equal(t, "from-keyring", ResolveToken(v, store))

	v.Set("github.token", " from-config ")
	assert.Equal(t, "from-config", ResolveToken(v, store))

	assert.Equal(t, "", ResolveToken(viper.New(), nil))
}
