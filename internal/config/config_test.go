package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORAGE_DRIVER", "LEDGER_MIN_BATCH", "LEDGER_MAX_BATCH", "TICKET_PREFIX", "NOTIFY_DISMISS_MS", "SCAN_HISTORY_SIZE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 1, cfg.Ledger.MinBatch)
	assert.Equal(t, 200, cfg.Ledger.MaxBatch)
	assert.Equal(t, "TIX", cfg.Ledger.DefaultPrefix)
	assert.Equal(t, 3*time.Second, cfg.Notify.DismissAfter)
	assert.Equal(t, 10, cfg.Scanner.HistorySize)
	assert.True(t, cfg.Scanner.StopOnSuccess)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("LEDGER_MAX_BATCH", "500")
	t.Setenv("TICKET_PREFIX", "vip")
	t.Setenv("NOTIFY_DISMISS_MS", "250")
	t.Setenv("LOG_COLOR", "false")

	cfg := Load()

	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, 500, cfg.Ledger.MaxBatch)
	assert.Equal(t, "VIP", cfg.Ledger.DefaultPrefix)
	assert.Equal(t, 250*time.Millisecond, cfg.Notify.DismissAfter)
	assert.False(t, cfg.Log.Color)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("LEDGER_MAX_BATCH", "lots")
	t.Setenv("NOTIFY_DISMISS_MS", "-5")
	t.Setenv("LOG_COLOR", "maybe")

	cfg := Load()

	assert.Equal(t, 200, cfg.Ledger.MaxBatch)
	assert.Equal(t, 3*time.Second, cfg.Notify.DismissAfter)
	assert.True(t, cfg.Log.Color)
}
