package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/urfave/cli"

	"tix-voucher/internal/scanner"
	"tix-voucher/internal/tickets/qr"
	"tix-voucher/internal/tickets/validator"
	"tix-voucher/internal/utils"
)

func runScan(c *cli.Context) error {
	m := meta(c)
	ctx := context.Background()

	lookup := validator.Lookup{ID: c.String("id"), Number: c.String("number")}
	if !lookup.Empty() {
		outcome, err := m.rt.Ledger.Scan(ctx, lookup)
		if err != nil {
			return fail(m, "Scan failed", err)
		}
		return respond(m, utils.Response{
			Success:   outcome.Success,
			Message:   outcome.Message,
			Data:      outcome,
			Timestamp: time.Now(),
		})
	}

	input := strings.Join(c.Args(), " ")
	if strings.TrimSpace(input) == "" {
		return fail(m, "Scan failed", errors.New("a ticket number, QR payload, --id or --number is required"))
	}

	// a one-shot manual entry; no camera is opened
	session := scanner.NewSession(nil, m.rt.Ledger, qr.NewGenerator(m.cfg.QR.SecretKey, m.cfg.QR.Size), scanner.Options{
		HistorySize: m.cfg.Scanner.HistorySize,
		Logger:      m.log,
	})
	record, _, err := session.ManualEntry(ctx, input)
	if err != nil {
		return fail(m, "Scan failed", err)
	}
	return respond(m, utils.Response{
		Success:   record.Success,
		Message:   record.Message,
		Data:      record,
		Timestamp: record.Timestamp,
	})
}
