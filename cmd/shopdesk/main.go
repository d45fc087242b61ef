package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/internal/kernel"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var jsonFlag bool

// appOptions is handed to kernel.New by every command. Tests swap in mock
// backends here.
var appOptions kernel.Options

var rootCmd = &cobra.Command{
	Use:           "shopdesk",
	Short:         "Shop admin from the terminal",
	Long:          "shopdesk drives the shop's admin backends: catalogue, orders, repairs, news, staff and statistics.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print raw JSON instead of tables")

	// Session
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// Collections
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(deleteCmd)

	// Workflows
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(aboutCmd)
	rootCmd.AddCommand(statsCmd)

	// Devtools
	rootCmd.AddCommand(devtoolsCmd)
}

// withApp runs fn against a fresh kernel.App. Ctrl+C cancels ctx.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *kernel.App) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := kernel.New(ctx, appOptions)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}
