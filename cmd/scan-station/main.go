package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tix-voucher/internal/bootstrap"
	"tix-voucher/internal/config"
	"tix-voucher/internal/logger"
	"tix-voucher/internal/notify"
	"tix-voucher/internal/scanner"
	"tix-voucher/internal/tickets/qr"
)

// pause between a successful scan and reopening the camera
const rearmDelay = 500 * time.Millisecond

func main() {
	envErr := godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	log, err := bootstrap.NewLogger(cfg.Log, "scan-station", os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
	defer log.Close()
	if envErr != nil {
		log.Debug("CONFIG", ".env file not found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("STATION", err.Error())
		log.Close()
		os.Exit(1)
	}
	log.Info("STATION", "✅ Scan station shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer rt.Close()

	go logNotifications(ctx, rt.Notifier.Subscribe(ctx), log)

	camera := scanner.NewLineCamera("stdin", os.Stdin)
	decoder := qr.NewGenerator(cfg.QR.SecretKey, cfg.QR.Size)
	session := scanner.NewSession(camera, rt.Ledger, decoder, scanner.Options{
		HistorySize:   cfg.Scanner.HistorySize,
		StopOnSuccess: cfg.Scanner.StopOnSuccess,
		Logger:        log,
	})

	log.Info("STATION", fmt.Sprintf("🚀 Scan station ready for %s (%d tickets loaded)",
		rt.Ledger.Settings().OrganizationName, len(rt.Ledger.Tickets())))

	for {
		if _, err := session.Start(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return session.Stop()
		case <-camera.EOF():
			if err := session.Stop(); err != nil {
				return err
			}
			return camera.Err()
		case <-session.Done():
		}

		// stopped after a successful scan; reopen for the next visitor
		select {
		case <-ctx.Done():
			return nil
		case <-camera.EOF():
			return camera.Err()
		case <-time.After(rearmDelay):
		}
	}
}

func logNotifications(ctx context.Context, notes <-chan notify.Notification, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-notes:
			if !ok {
				return
			}
			switch note.Kind {
			case notify.Error:
				log.Error("TOAST", note.Message)
			case notify.Warning:
				log.Warn("TOAST", note.Message)
			default:
				log.Info("TOAST", note.Message)
			}
		}
	}
}
