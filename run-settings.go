package main

import (
	"context"

	"github.com/urfave/cli"

	"tix-voucher/internal/models"
	"tix-voucher/internal/utils"
)

func runSettings(c *cli.Context) error {
	m := meta(c)

	var patch models.SettingsPatch
	if c.IsSet("organization") {
		name := c.String("organization")
		patch.OrganizationName = &name
	}
	if c.IsSet("max-users") {
		maxUsers := c.Int("max-users")
		patch.MaxUsers = &maxUsers
	}

	if patch.Empty() {
		return respond(m, utils.SuccessResponse("Current settings", m.rt.Ledger.Settings()))
	}

	settings, err := m.rt.Ledger.UpdateSettings(context.Background(), patch)
	if err != nil {
		return fail(m, "Failed to update settings", err)
	}
	return respond(m, utils.SuccessResponse("Settings updated", settings))
}
