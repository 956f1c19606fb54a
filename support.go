package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/natefinch/atomic"
	"github.com/urfave/cli"

	"tix-voucher/internal/notify"
	"tix-voucher/internal/utils"
)

func meta(c *cli.Context) *metadata {
	return c.App.Metadata["config"].(*metadata)
}

// respond prints the envelope on stdout and echoes the active notification on stderr.
func respond(m *metadata, resp utils.Response) error {
	echoNotification(m)
	return resp.Write(m.w)
}

func successf(data interface{}, format string, args ...interface{}) utils.Response {
	return utils.SuccessResponse(fmt.Sprintf(format, args...), data)
}

// fail prints an error envelope and returns err so the process exits non-zero.
func fail(m *metadata, message string, err error) error {
	echoNotification(m)
	if writeErr := utils.ErrorResponse(message, err).Write(m.w); writeErr != nil {
		m.log.Error("CLI", fmt.Sprintf("Failed to write response: %v", writeErr))
	}
	return err
}

func echoNotification(m *metadata) {
	if m.rt == nil {
		return
	}
	note, ok := m.rt.Notifier.Current()
	if !ok {
		return
	}

	var c *color.Color
	switch note.Kind {
	case notify.Success:
		c = color.New(color.FgGreen)
	case notify.Warning:
		c = color.New(color.FgYellow)
	case notify.Error:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgBlue)
	}
	if !m.cfg.Log.Color {
		c.DisableColor()
	}
	c.Fprintf(m.e, "[%s] %s\n", note.Kind, note.Message)
}

// writeFile replaces path atomically.
func writeFile(path string, data []byte) error {
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readInput(m *metadata, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(m.r)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
