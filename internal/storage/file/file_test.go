package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tix-voucher/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")

	s, err := New(dir, "acme-")
	require.NoError(t, err)

	_, ok, err := s.Get(ctx, storage.SettingsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, storage.SettingsKey, `{"organizationName":"Acme","maxUsers":1}`))

	value, ok, err := s.Get(ctx, storage.SettingsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"organizationName":"Acme","maxUsers":1}`, value)

	_, err = os.Stat(filepath.Join(dir, "acme-"+storage.SettingsKey+".json"))
	assert.NoError(t, err)

	// overwrite replaces the whole document
	require.NoError(t, s.Set(ctx, storage.SettingsKey, `{}`))
	value, _, _ = s.Get(ctx, storage.SettingsKey)
	assert.Equal(t, `{}`, value)

	require.NoError(t, s.Clear(ctx, storage.SettingsKey))
	_, ok, err = s.Get(ctx, storage.SettingsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// clearing a missing key is not an error
	assert.NoError(t, s.Clear(ctx, storage.SettingsKey))
}

func TestFileStoreRejectsPathKeys(t *testing.T) {
	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	err = s.Set(context.Background(), "../escape", "x")
	assert.Error(t, err)
}
