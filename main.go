package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"

	"tix-voucher/internal/bootstrap"
	"tix-voucher/internal/config"
	"tix-voucher/internal/logger"
)

type metadata struct {
	cfg     *config.Config
	log     *logger.Logger
	rt      *bootstrap.Runtime
	verbose bool
	r       io.Reader
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" .
var version = "zero"

// commands that manage their own storage connections
var ownStorage = map[string]bool{
	"migrate": true,
	"help":    true,
	"h":       true,
}

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(r io.Reader, w, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "tix"
	app.Usage = "issue and redeem numbered QR tickets"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " log at debug level",
		},
		cli.StringFlag{
			Name:  "storage, s",
			Value: "",
			Usage: " override STORAGE_DRIVER `DRIVER` [memory|file|redis|sqlite|postgres]",
		},
		cli.StringFlag{
			Name:  "env",
			Value: ".env",
			Usage: " environment `FILE` to load",
		},
	}
	app.Commands = commands()

	app.Before = func(c *cli.Context) error {
		e := c.App.ErrWriter
		w := c.App.Writer
		verbose := c.GlobalBool("verbose")

		envErr := godotenv.Load(c.GlobalString("env"))

		cfg := config.Load()
		if driver := c.GlobalString("storage"); driver != "" {
			cfg.Storage.Driver = driver
		}
		if verbose {
			cfg.Log.Level = "DEBUG"
		}

		log, err := bootstrap.NewLogger(cfg.Log, "tix", e)
		if err != nil {
			return err
		}
		if envErr != nil {
			log.Debug("CONFIG", ".env file not found, using environment variables")
		} else {
			log.Debug("CONFIG", "Loaded environment variables from .env file")
		}

		m := &metadata{
			cfg:     cfg,
			log:     log,
			verbose: verbose,
			r:       r,
			e:       e,
			w:       w,
		}
		c.App.Metadata["config"] = m

		command := c.Args().Get(0)
		if command == "" || ownStorage[command] {
			return nil
		}

		rt, err := bootstrap.Open(context.Background(), cfg, log)
		if err != nil {
			log.Error("STORAGE", fmt.Sprintf("Failed to open %s storage: %v", cfg.Storage.Driver, err))
			return err
		}
		m.rt = rt
		return nil
	}

	app.After = func(c *cli.Context) error {
		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok {
			return nil
		}
		defer m.log.Close()
		return m.rt.Close()
	}

	return app
}

func commands() []cli.Command {
	return []cli.Command{
		{
			Name:      "generate",
			Usage:     "generate a batch of numbered tickets",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count, c",
					Value: 1,
					Usage: "*number of tickets `COUNT`",
				},
				cli.StringFlag{
					Name:  "prefix, p",
					Value: "",
					Usage: " ticket number `PREFIX` [default TICKET_PREFIX]",
				},
				cli.StringFlag{
					Name:  "extra, x",
					Value: "",
					Usage: " free text printed on every ticket `TEXT`",
				},
			},
			Action: runGenerate,
		},
		{
			Name:      "scan",
			Usage:     "redeem a ticket by number, id or QR payload",
			ArgsUsage: "[NUMBER|PAYLOAD]",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "id, i",
					Value: "",
					Usage: " ticket `ID`",
				},
				cli.StringFlag{
					Name:  "number, n",
					Value: "",
					Usage: " ticket `NUMBER`",
				},
			},
			Action: runScan,
		},
		{
			Name:   "undo",
			Usage:  "remove the most recently generated batch",
			Action: runUndo,
		},
		{
			Name:  "list",
			Usage: "list tickets, newest batch first",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "filter, f",
					Value: "all",
					Usage: " `FILTER` [all|scanned|not-scanned]",
				},
				cli.BoolFlag{
					Name:  "last-batch, l",
					Usage: " only the undoable batch",
				},
			},
			Action: runList,
		},
		{
			Name:  "report",
			Usage: "scan statistics and generated vs scanned breakdown",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "period, p",
					Value: "daily",
					Usage: " breakdown `PERIOD` [daily|weekly|monthly]",
				},
				cli.StringFlag{
					Name:  "filter, f",
					Value: "all",
					Usage: " ticket `FILTER` [all|scanned|not-scanned]",
				},
			},
			Action: runReport,
		},
		{
			Name:  "export",
			Usage: "write the whole ledger as a JSON document",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "output, o",
					Value: "",
					Usage: " output `FILE` [default tix-voucher-export-<millis>.json, - for stdout]",
				},
			},
			Action: runExport,
		},
		{
			Name:      "import",
			Usage:     "replace tickets and/or settings from an export document",
			ArgsUsage: "FILE\n   (- reads stdin)",
			Action:    runImport,
		},
		{
			Name:  "settings",
			Usage: "show or update organization settings",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "organization, o",
					Value: "",
					Usage: " organization `NAME`",
				},
				cli.IntFlag{
					Name:  "max-users, m",
					Value: 0,
					Usage: " informational user limit `COUNT`",
				},
			},
			Action: runSettings,
		},
		{
			Name:  "clear",
			Usage: "delete every ticket, settings are kept",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "yes, y",
					Usage: "*confirm deleting all tickets",
				},
			},
			Action: runClear,
		},
		{
			Name:      "qr",
			Usage:     "write the QR symbol of a ticket as PNG",
			ArgsUsage: "NUMBER",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "output, o",
					Value: "",
					Usage: " PNG `FILE` [default <NUMBER>.png]",
				},
			},
			Action: runQR,
		},
		{
			Name:  "print",
			Usage: "render tickets to a printable PDF sheet",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "output, o",
					Value: "tickets.pdf",
					Usage: " PDF `FILE`",
				},
				cli.BoolFlag{
					Name:  "last-batch, l",
					Usage: " only the most recent batch",
				},
				cli.StringFlag{
					Name:  "filter, f",
					Value: "all",
					Usage: " `FILTER` [all|scanned|not-scanned]",
				},
			},
			Action: runPrint,
		},
		{
			Name:      "migrate",
			Usage:     "copy the ledger between storage drivers",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "from",
					Value: "",
					Usage: "*source `DRIVER`",
				},
				cli.StringFlag{
					Name:  "to",
					Value: "",
					Usage: "*destination `DRIVER`",
				},
			},
			Action: runMigrate,
		},
	}
}
