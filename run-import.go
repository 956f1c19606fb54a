package main

import (
	"context"
	"errors"

	"github.com/urfave/cli"

	"tix-voucher/internal/utils"
)

func runImport(c *cli.Context) error {
	m := meta(c)

	name := c.Args().First()
	if name == "" {
		return fail(m, "Failed to import data", errors.New("an export FILE (or - for stdin) is required"))
	}
	raw, err := readInput(m, name)
	if err != nil {
		return fail(m, "Failed to import data", err)
	}

	if err := m.rt.Ledger.Import(context.Background(), raw); err != nil {
		return fail(m, "Failed to import data", err)
	}
	return respond(m, utils.SuccessResponse("Data imported successfully", map[string]interface{}{
		"tickets":  len(m.rt.Ledger.Tickets()),
		"settings": m.rt.Ledger.Settings(),
	}))
}
