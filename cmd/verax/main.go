// verax checks published cargo crates for two veracity factors: provenance
// through trusted publishing, and builds independently reproduced from
// source. Evidence is cached so repeated runs only re-check what can still
// change.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "verax:", err)
		os.Exit(1)
	}
}
