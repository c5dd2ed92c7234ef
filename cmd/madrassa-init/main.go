package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"madrassa/internal/cli"
	"madrassa/internal/core"
	applog "madrassa/internal/log"
)

// configStore is the part of the ledger store the bootstrap writes to.
type configStore interface {
	GetConfig(ctx context.Context) (core.Config, error)
	SaveConfig(ctx context.Context, c core.Config) error
}

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	ctx := context.Background()

	// Opening the sqlite backend applies pending migrations.
	store := cli.OpenBackend(ctx, logger, cfg)
	defer store.Cleanup()
	logger.Info("Schema is up to date", applog.FieldOperation, applog.OpMigrate, "backend", cfg.DataBackend)

	saved, err := run(ctx, os.Args[1:], store.Backend, os.Stderr)
	if err != nil {
		logger.Error("Bootstrap failed", applog.FieldError, err)
		store.Cleanup()
		os.Exit(1)
	}
	logger.Info("Config saved",
		applog.FieldOperation, applog.OpUpdate,
		"name", saved.OrgName(),
		"admin_phones", len(saved.AdminPhones),
		"monthly_due_date", saved.MonthlyDueDate)
}

// run applies the flags that were set on top of the stored config.
// Flags left unset keep the stored value; env vars provide the defaults.
func run(ctx context.Context, args []string, store configStore, stderr io.Writer) (core.Config, error) {
	fs := flag.NewFlagSet("madrassa-init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", os.Getenv("MADRASSA_NAME"), "organisation display name")
	address := fs.String("address", os.Getenv("MADRASSA_ADDRESS"), "postal address")
	phone := fs.String("phone", os.Getenv("MADRASSA_PHONE"), "office phone")
	adminName := fs.String("admin-name", os.Getenv("MADRASSA_ADMIN_NAME"), "administrator name")
	adminPhones := fs.String("admin-phones", os.Getenv("MADRASSA_ADMIN_PHONES"), "comma separated phones that receive reports")
	dueDate := fs.Int("due-date", 0, "day of month fees are due (1-31)")
	annualMonth := fs.String("annual-fee-month", "", "month the annual fee is charged (01-12)")
	annualFee := fs.String("annual-fee", "", "annual fee in rupees")
	if err := fs.Parse(args); err != nil {
		return core.Config{}, err
	}

	c, err := store.GetConfig(ctx)
	if err != nil {
		return core.Config{}, fmt.Errorf("load config: %w", err)
	}

	setIf := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	setIf(&c.Name, *name)
	setIf(&c.Address, *address)
	setIf(&c.Phone, *phone)
	setIf(&c.AdminName, *adminName)
	setIf(&c.AnnualFeeMonth, *annualMonth)
	if strings.TrimSpace(*adminPhones) != "" {
		c.AdminPhones = splitPhones(*adminPhones)
	}
	if *dueDate != 0 {
		c.MonthlyDueDate = *dueDate
	}
	if strings.TrimSpace(*annualFee) != "" {
		fee, err := core.ParseAmount(*annualFee)
		if err != nil {
			return core.Config{}, fmt.Errorf("annual fee: %w", err)
		}
		c.AnnualFee = fee
	}

	if err := c.Validate(); err != nil {
		return core.Config{}, err
	}
	if err := store.SaveConfig(ctx, c); err != nil {
		return core.Config{}, fmt.Errorf("save config: %w", err)
	}
	return c, nil
}

func splitPhones(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
