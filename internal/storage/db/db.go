// Package db persists ledger documents in a single key/value table through bun.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Blob is one stored document.
type Blob struct {
	bun.BaseModel `bun:"table:ledger_blobs"`

	Key       string    `bun:"name,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type DB struct {
	Bun *bun.DB
}

// Migrate creates the blob table when it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.Bun.NewCreateTable().
		Model((*Blob)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create ledger_blobs table: %w", err)
	}
	return nil
}

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var blob Blob
	err := d.Bun.NewSelect().
		Model(&blob).
		Where("name = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading %s: %w", key, err)
	}
	return blob.Value, true, nil
}

// Set upserts the document for key.
func (d *DB) Set(ctx context.Context, key, value string) error {
	blob := Blob{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := d.Bun.NewInsert().
		Model(&blob).
		On("CONFLICT (name) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (d *DB) Clear(ctx context.Context, key string) error {
	_, err := d.Bun.NewDelete().
		Model((*Blob)(nil)).
		Where("name = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}
