package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("ghl-mcp: %v", err)
	}
}

// newRootCmd builds the command tree. Running the binary without a
// subcommand serves.
func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	root := &cobra.Command{
		Use:   "ghl-mcp",
		Short: "MCP bridge exposing GoHighLevel operations as tools",
		Long: `ghl-mcp serves the GoHighLevel CRM to MCP hosts over streamable HTTP.

Callers authenticate with an OAuth access token issued by this server
(login is delegated to GitHub) or with the shared static token. Settings
come from the environment, optionally on top of a YAML file named by
CONFIG_FILE.`,
		Version:      app.BuildVersion,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.SetVersionTemplate(`{{printf "ghl-mcp version %s\n" .Version}}`)

	root.AddCommand(serve, newMigrateCmd(), newSweepCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply authorization store migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if err := app.Migrate(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date\n", cfg.StoreDriver)
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired authorization codes and access tokens once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			result, err := app.Sweep(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d authorization codes, %d access tokens\n", result.Codes, result.Tokens)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ghl-mcp version %s\n", app.BuildVersion)
		},
	}
}
