package storage_test

import (
	"context"
	"testing"

	"tix-voucher/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetClear(t *testing.T) {
	ctx := context.Background()
	m := storage.NewMemory()

	_, ok, err := m.Get(ctx, storage.TicketsKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, storage.TicketsKey, `[]`))
	value, ok, err := m.Get(ctx, storage.TicketsKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, value)

	require.NoError(t, m.Clear(ctx, storage.TicketsKey))
	_, ok, _ = m.Get(ctx, storage.TicketsKey)
	assert.False(t, ok)
}

func TestCopyMovesEveryKey(t *testing.T) {
	ctx := context.Background()
	src := storage.NewMemory()
	dst := storage.NewMemory()

	require.NoError(t, src.Set(ctx, storage.TicketsKey, `{"tickets":[]}`))
	require.NoError(t, dst.Set(ctx, storage.SettingsKey, `{"organizationName":"stale"}`))

	copied, err := storage.Copy(ctx, dst, src)
	require.NoError(t, err)
	assert.Equal(t, 1, copied)

	value, ok, _ := dst.Get(ctx, storage.TicketsKey)
	assert.True(t, ok)
	assert.Equal(t, `{"tickets":[]}`, value)

	// settings were absent in the source, so the stale copy is cleared
	_, ok, _ = dst.Get(ctx, storage.SettingsKey)
	assert.False(t, ok)
}
