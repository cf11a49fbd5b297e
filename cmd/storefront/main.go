// Command storefront is the terminal client for the B2B storefront API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/R3E-Network/storefront/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
