package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/commands"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "fern",
		Short: "Fossil-fuel trade analytics API",
		Long: `Fern serves the fossil-fuel trade warehouse (voyages, overland and gas-grid
flows, port calls, flaring and priced Kpler trades) through a uniform query
surface with filters, aggregation, rolling averages, pivots and currency spread.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		commands.NewServeCmd(version),
		commands.NewMigrateCmd(),
		commands.NewAPIKeyCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
