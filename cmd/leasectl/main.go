// leasectl evaluates lease auction snapshots from the command line: it
// initialises new auctions, computes next checks and business dates, and
// submits snapshots to the scheduling worker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/openprocurement/openprocurement.auctions.lease/cmd/leasectl/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], cli.Env{})
	stop()
	os.Exit(code)
}
