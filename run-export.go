package main

import (
	"fmt"

	"github.com/urfave/cli"

	"tix-voucher/internal/utils"
)

func runExport(c *cli.Context) error {
	m := meta(c)

	raw, name, err := m.rt.Ledger.ExportJSON()
	if err != nil {
		return fail(m, "Failed to export data", err)
	}

	output := c.String("output")
	if output == "-" {
		_, err := fmt.Fprintf(m.w, "%s\n", raw)
		echoNotification(m)
		return err
	}
	if output == "" {
		output = name
	}
	if err := writeFile(output, raw); err != nil {
		return fail(m, "Failed to export data", err)
	}
	m.log.Info("EXPORT", fmt.Sprintf("Ledger exported to %s", output))

	return respond(m, utils.SuccessResponse("Data exported successfully", map[string]interface{}{
		"file":    output,
		"tickets": len(m.rt.Ledger.Tickets()),
		"bytes":   len(raw),
	}))
}
