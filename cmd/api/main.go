package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notes-service/cmd/api/app"
	"notes-service/cmd/api/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Migrate(cmd.Context(), configPath)
		},
	}

	root := &cobra.Command{
		Use:           "notes-service",
		Short:         "Personal notes API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "directory containing app.env")
	root.AddCommand(serve, migrate)

	return root
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, configPath)
	if err != nil {
		return err
	}

	ctx, stop := server.WithSignal(ctx, a.Logger)
	defer stop()

	return a.Run(ctx)
}

func defaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "."
}
