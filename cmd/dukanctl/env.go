package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"ApniDukan/internal/cart"
	"ApniDukan/internal/client"
	"ApniDukan/internal/localstore"
	"ApniDukan/pkg/kit"
)

type env struct {
	store  *localstore.Store
	api    *client.Client
	cart   *cart.Store
	log    *zap.Logger
	closed bool
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "dukanctl")
	}
	return ".dukanctl"
}

func setup(c *cli.Context) error {
	if c.Args().First() == "version" {
		return nil
	}

	log := zap.NewNop()
	if c.GlobalBool("verbose") {
		log = kit.NewLogger("dukanctl")
	}

	dir := c.GlobalString("data")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("data directory %q: %w", dir, err)
	}
	store, err := localstore.Open(filepath.Join(dir, "state"))
	if err != nil {
		return fmt.Errorf("open local state: %w", err)
	}

	c.App.Metadata["env"] = &env{
		store: store,
		api:   client.New(c.GlobalString("server"), store, client.WithLogger(log)),
		cart:  cart.New(store, log),
		log:   log,
	}
	return nil
}

func teardown(c *cli.Context) error {
	e, ok := c.App.Metadata["env"].(*env)
	if !ok || e.closed {
		return nil
	}
	e.closed = true
	_ = e.log.Sync()
	return e.store.Close()
}

func envOf(c *cli.Context) *env {
	return c.App.Metadata["env"].(*env)
}

// describe turns client errors into one line for the terminal.
func describe(err error) string {
	var inv *cart.InvalidCustomerError
	if errors.As(err, &inv) {
		msg := "check the form:"
		for _, f := range inv.Fields {
			msg += "\n  " + f.Field + ": " + f.Message
		}
		return msg
	}

	switch client.Classify(err) {
	case client.KindValidation:
		msg := err.Error()
		messages := client.FieldMessages(err)
		for _, field := range client.Fields(err) {
			msg += "\n  " + field + ": " + messages[field]
		}
		return msg
	case client.KindLocal:
		if errors.Is(err, client.ErrAuthRequired) {
			return "not signed in, run dukanctl login first"
		}
	case client.KindCancelled:
		return "cancelled"
	}
	return err.Error()
}
