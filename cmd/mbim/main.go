package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/vitaminmoo/mbim-tool/internal/cli"
)

var version = "dev"

func main() {
	var c cli.CLI
	kong.Parse(&c,
		kong.Name("mbim"),
		kong.Description("Control MBIM modems. Phonebook operations on the SIM."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := c.Run(ctx, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
