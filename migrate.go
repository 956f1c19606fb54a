package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"tix-voucher/internal/bootstrap"
	"tix-voucher/internal/storage"
)

// runMigrate copies both ledger keys from one storage driver to another.
// The source is left untouched.
func runMigrate(c *cli.Context) error {
	m := meta(c)
	ctx := context.Background()

	from := c.String("from")
	to := c.String("to")
	if from == "" || to == "" {
		return fail(m, "Migration failed", errors.New("both --from and --to are required"))
	}
	if from == to {
		return fail(m, "Migration failed", fmt.Errorf("source and destination are both %q", from))
	}

	src, closeSrc, err := bootstrap.OpenAdapter(ctx, from, m.cfg.Storage, m.log)
	if err != nil {
		return fail(m, "Migration failed", fmt.Errorf("open source: %w", err))
	}
	defer closeSrc()

	dst, closeDst, err := bootstrap.OpenAdapter(ctx, to, m.cfg.Storage, m.log)
	if err != nil {
		return fail(m, "Migration failed", fmt.Errorf("open destination: %w", err))
	}
	defer closeDst()

	m.log.Info("MIGRATE", fmt.Sprintf("Copying ledger from %s to %s", from, to))
	copied, err := storage.Copy(ctx, dst, src)
	if err != nil {
		m.log.Error("MIGRATE", fmt.Sprintf("Copy stopped after %d key(s): %v", copied, err))
		return fail(m, "Migration failed", err)
	}
	m.log.Info("MIGRATE", fmt.Sprintf("✅ Copied %d key(s)", copied))

	return respond(m, successf(map[string]interface{}{"from": from, "to": to, "keys": copied},
		"Copied %d key(s) from %s to %s", copied, from, to))
}
