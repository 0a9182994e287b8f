package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/pagestack/internal/infrastructure/config"
	"github.com/GriffinCanCode/pagestack/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the navigation session and API server",
		Long: `Serve fetches the entry document, builds the configured stacks and
serves the API until interrupted.

Examples:
  # Stacks on <body> of a local site
  pagestackd serve --origin http://localhost:8080

  # Stacks from a definition file, entry at /docs
  pagestackd serve --origin https://example.com --entry /docs --stacks stacks.yaml`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("port", "p", "", "Server port (PORT)")
	cmd.Flags().String("host", "", "Listen host (HOST)")
	cmd.Flags().StringP("origin", "o", "", "Origin pages are fetched from (PAGESTACK_ORIGIN)")
	cmd.Flags().StringP("entry", "e", "", "Entry address (PAGESTACK_ENTRY)")
	cmd.Flags().StringP("stacks", "s", "", "Stack definition file, YAML or TOML (PAGESTACK_STACKS)")
	cmd.Flags().String("log-level", "", "Log level (LOG_LEVEL)")
	cmd.Flags().Bool("sanitize", false, "Sanitize fetched markup (PAGESTACK_SANITIZE)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, server.WithVersion(getVersion()))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.ErrOrStderr(), "Shutting down gracefully...")
		return srv.Close()
	case err := <-errChan:
		_ = srv.Close()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

// applyFlags overrides environment settings with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	values := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"origin":    &cfg.Session.Origin,
		"entry":     &cfg.Session.Entry,
		"stacks":    &cfg.Session.Stacks,
		"log-level": &cfg.Logging.Level,
	}
	for name, dst := range values {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("sanitize") {
		v, err := flags.GetBool("sanitize")
		if err != nil {
			return err
		}
		cfg.Session.Sanitize = v
	}
	if flags.Changed("dev") {
		v, err := flags.GetBool("dev")
		if err != nil {
			return err
		}
		cfg.Logging.Development = v
	}
	return nil
}
