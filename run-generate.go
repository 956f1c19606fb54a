package main

import (
	"context"
	"strings"

	"github.com/urfave/cli"

	"tix-voucher/internal/tickets/ledger"
)

func runGenerate(c *cli.Context) error {
	m := meta(c)

	prefix := c.String("prefix")
	if prefix == "" {
		prefix = m.cfg.Ledger.DefaultPrefix
	}
	req := ledger.GenerateRequest{
		Count:  c.Int("count"),
		Prefix: strings.ToUpper(strings.TrimSpace(prefix)),
		Extra:  c.String("extra"),
	}

	batch, err := m.rt.Ledger.Generate(context.Background(), req)
	if err != nil {
		return fail(m, "Failed to generate tickets", err)
	}
	return respond(m, successf(batch, "Successfully generated %d ticket(s)", len(batch)))
}
