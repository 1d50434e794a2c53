// Command prefix-verify summarizes a country prefix list: prefix and address
// totals, the distribution by prefix length, and the largest prefixes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/eunmann/prefix-verify/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
