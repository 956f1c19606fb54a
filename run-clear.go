package main

import (
	"context"
	"errors"

	"github.com/urfave/cli"

	"tix-voucher/internal/utils"
)

var errNotConfirmed = errors.New("refusing to delete all tickets without --yes")

func runClear(c *cli.Context) error {
	m := meta(c)

	if !c.Bool("yes") {
		return fail(m, "All data was kept", errNotConfirmed)
	}

	removed := len(m.rt.Ledger.Tickets())
	if err := m.rt.Ledger.ClearAllData(context.Background()); err != nil {
		return fail(m, "Failed to clear data", err)
	}
	return respond(m, utils.SuccessResponse("All data cleared", map[string]int{"removed": removed}))
}
