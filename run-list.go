package main

import (
	"time"

	"github.com/urfave/cli"

	"tix-voucher/internal/analytics"
)

func runList(c *cli.Context) error {
	m := meta(c)

	filter, err := analytics.ParseFilter(c.String("filter"))
	if err != nil {
		return fail(m, "Invalid filter", err)
	}

	tickets := m.rt.Ledger.Tickets()
	if c.Bool("last-batch") {
		tickets = m.rt.Ledger.LastBatch()
	}
	tickets = analytics.NewService(time.Local).FilterTickets(tickets, filter)

	return respond(m, successf(tickets, "%d ticket(s)", len(tickets)))
}
