package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/config"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
	"github.com/shashiranjanraj/shopdesk/internal/server"
)

var (
	devtoolsAddrFlag  string
	devtoolsTokenFlag string
)

// shopdesk devtools
var devtoolsCmd = &cobra.Command{
	Use:   "devtools",
	Short: "Serve the store over HTTP for the devtools panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			addr := devtoolsAddrFlag
			if addr == "" {
				addr = config.DevtoolsAddr()
			}
			syncTransitions(ctx, app)

			srv := server.New(app, server.Options{Token: devtoolsTokenFlag})
			defer srv.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Devtools on %s. Press Ctrl+C to stop.\n", addr)
			if err := srv.Run(ctx, addr); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nDevtools stopped.")
			return nil
		})
	},
}

func init() {
	devtoolsCmd.Flags().StringVar(&devtoolsAddrFlag, "addr", "", "Listen address (default DEVTOOLS_ADDR)")
	devtoolsCmd.Flags().StringVar(&devtoolsTokenFlag, "token", "", "Bearer token guarding the panel (default DEVTOOLS_TOKEN)")
}
