package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.Set(KeyEventCode, "ABC123"))
	require.NoError(t, s.Set(KeyDisplayName, "Grace"))

	value, ok := s.Get(KeyEventCode)
	assert.True(t, ok)
	assert.Equal(t, "ABC123", value)
	assert.Equal(t, []string{KeyDisplayName, KeyEventCode}, s.Keys())

	require.NoError(t, s.Remove(KeyEventCode, "missing"))
	_, ok = s.Get(KeyEventCode)
	assert.False(t, ok)
}

func TestFileStoragePersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	first, err := OpenFileStorage(path)
	require.NoError(t, err)
	assert.Empty(t, first.Keys())
	require.NoError(t, first.Set(KeyEventCode, "ABC123"))

	second, err := OpenFileStorage(path)
	require.NoError(t, err)
	value, ok := second.Get(KeyEventCode)
	require.True(t, ok)
	assert.Equal(t, "ABC123", value)

	require.NoError(t, second.Set(KeyAnonymousID, "p-1"))
	_, ok = first.Get(KeyAnonymousID)
	assert.False(t, ok, "other instance sees writes only after Reload")
	require.NoError(t, first.Reload())
	value, _ = first.Get(KeyAnonymousID)
	assert.Equal(t, "p-1", value)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be renamed away")
}

func TestFileStorageRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := OpenFileStorage(path)
	assert.Error(t, err)
}

func TestMigrateLegacyKeys(t *testing.T) {
	t.Run("moves old token", func(t *testing.T) {
		s := NewMemoryStorage()
		require.NoError(t, s.Set("event_app_auth_token", "legacy"))
		require.NoError(t, MigrateLegacyKeys(s))

		token, ok := s.Get(KeyAuthToken)
		assert.True(t, ok)
		assert.Equal(t, "legacy", token)
		assert.Equal(t, []string{KeyAuthToken}, s.Keys())
	})

	t.Run("current token wins", func(t *testing.T) {
		s := NewMemoryStorage()
		require.NoError(t, s.Set(KeyAuthToken, "current"))
		require.NoError(t, s.Set("auth_token", "stale"))
		require.NoError(t, MigrateLegacyKeys(s))

		token, _ := s.Get(KeyAuthToken)
		assert.Equal(t, "current", token)
		_, ok := s.Get("auth_token")
		assert.False(t, ok)
	})

	t.Run("file storage migrates on open", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"auth_token":"old"}`), 0o600))
		s, err := OpenFileStorage(path)
		require.NoError(t, err)
		token, _ := s.Get(KeyAuthToken)
		assert.Equal(t, "old", token)

		reopened, err := OpenFileStorage(path)
		require.NoError(t, err)
		assert.Equal(t, []string{KeyAuthToken}, reopened.Keys())
	})
}
