package main

import (
	"context"

	"github.com/urfave/cli"

	"tix-voucher/internal/utils"
)

func runUndo(c *cli.Context) error {
	m := meta(c)

	batch := m.rt.Ledger.LastBatch()
	if _, err := m.rt.Ledger.UndoLastGeneration(context.Background()); err != nil {
		return fail(m, "Nothing was undone", err)
	}
	return respond(m, utils.SuccessResponse("Last generation undone", batch))
}
