package main

import (
	"time"

	"github.com/urfave/cli"

	"tix-voucher/internal/analytics"
)

func runReport(c *cli.Context) error {
	m := meta(c)

	period, err := analytics.ParsePeriod(c.String("period"))
	if err != nil {
		return fail(m, "Invalid period", err)
	}
	filter, err := analytics.ParseFilter(c.String("filter"))
	if err != nil {
		return fail(m, "Invalid filter", err)
	}

	report := analytics.NewService(time.Local).Build(m.rt.Ledger.Tickets(), period, filter)
	return respond(m, successf(report, "Scan rate %s%%", report.Stats.ScanRate.StringFixed(1)))
}
