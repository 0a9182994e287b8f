package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagestackd.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagestackd",
		Short: "Page stack navigation daemon",
		Long: `pagestackd runs page stacks over a document fetched from an origin.

Pages are opened, closed and reloaded in response to address changes and
link clicks, which clients drive through the REST API or the /stream
WebSocket. Configuration comes from the environment; flags override it.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("dev", "d", false, "Development logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
