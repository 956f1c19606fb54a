// Package storage defines the key-value blob store the ledger persists into.
package storage

import (
	"context"
	"errors"
)

// Fixed logical keys. The values are JSON documents.
const (
	TicketsKey  = "tix-voucher-suite-v1"
	SettingsKey = "tix-voucher-settings-v1"
)

// Keys lists every key the ledger owns, in the order they should be copied.
var Keys = []string{TicketsKey, SettingsKey}

var ErrClosed = errors.New("storage: adapter closed")

// Adapter is a string-keyed blob store. Get reports ok=false for a missing key.
type Adapter interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context, key string) error
}

// Copy moves every ledger key from src to dst. Keys missing in src are cleared in dst.
func Copy(ctx context.Context, dst, src Adapter) (int, error) {
	copied := 0
	for _, key := range Keys {
		value, ok, err := src.Get(ctx, key)
		if err != nil {
			return copied, err
		}
		if !ok {
			if err := dst.Clear(ctx, key); err != nil {
				return copied, err
			}
			continue
		}
		if err := dst.Set(ctx, key, value); err != nil {
			return copied, err
		}
		copied++
	}
	return copied, nil
}
