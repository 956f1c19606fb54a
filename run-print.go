package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli"

	"tix-voucher/internal/analytics"
	"tix-voucher/internal/tickets/qr"
	"tix-voucher/internal/tickets/template"
)

func runPrint(c *cli.Context) error {
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

	generator := qr.NewGenerator(m.cfg.QR.SecretKey, m.cfg.QR.Size)
	cards := make([]template.Card, 0, len(tickets))
	for _, ticket := range tickets {
		png, err := generator.PNG(ticket)
		if err != nil {
			return fail(m, "Failed to print tickets", err)
		}
		cards = append(cards, template.Card{Ticket: ticket, QR: png})
	}

	sheet := template.NewSheetGenerator(m.cfg.QR.FontPath)
	pdf, err := sheet.Generate(m.rt.Ledger.Settings().OrganizationName, cards)
	if err != nil {
		return fail(m, "Failed to print tickets", err)
	}

	output := c.String("output")
	if err := writeFile(output, pdf); err != nil {
		return fail(m, "Failed to print tickets", err)
	}
	m.log.Info("PRINT", fmt.Sprintf("%d ticket(s) written to %s", len(cards), output))

	return respond(m, successf(map[string]interface{}{"file": output, "tickets": len(cards)},
		"%d ticket(s) ready to print", len(cards)))
}
