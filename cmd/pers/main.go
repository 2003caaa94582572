// Command pers inspects, queries and converts persistent memoization
// stores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/pers/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
