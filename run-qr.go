package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"tix-voucher/internal/models"
	"tix-voucher/internal/tickets/qr"
	"tix-voucher/internal/utils"
)

func runQR(c *cli.Context) error {
	m := meta(c)

	number := c.Args().First()
	if number == "" {
		return fail(m, "Failed to render QR code", errors.New("a ticket NUMBER is required"))
	}

	ticket, ok := findTicket(m.rt.Ledger.Tickets(), number)
	if !ok {
		return fail(m, "Failed to render QR code", fmt.Errorf("ticket %s not found", number))
	}

	generator := qr.NewGenerator(m.cfg.QR.SecretKey, m.cfg.QR.Size)
	png, err := generator.PNG(ticket)
	if err != nil {
		return fail(m, "Failed to render QR code", err)
	}
	text, err := generator.Text(ticket)
	if err != nil {
		return fail(m, "Failed to render QR code", err)
	}

	output := c.String("output")
	if output == "" {
		output = ticket.Number + ".png"
	}
	if err := writeFile(output, png); err != nil {
		return fail(m, "Failed to render QR code", err)
	}

	return respond(m, utils.SuccessResponse("QR code written", map[string]interface{}{
		"file":    output,
		"payload": text,
		"sealed":  generator.Sealed(),
	}))
}

func findTicket(tickets []models.Ticket, number string) (models.Ticket, bool) {
	for _, t := range tickets {
		if t.Number == number || t.ID == number {
			return t, true
		}
	}
	return models.Ticket{}, false
}
