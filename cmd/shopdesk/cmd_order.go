package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/app/pages"
	"github.com/shashiranjanraj/shopdesk/app/transitions"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
	"github.com/shashiranjanraj/shopdesk/pkg/logger"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Order status workflow",
}

// shopdesk order status <id> <status>
var orderStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move an order to another status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			syncTransitions(ctx, app)

			res, err := app.Request(ctx, app.Slices.Orders.Detail(args[0]))
			if err != nil {
				return err
			}
			order, _ := res.Payload.(models.Order)

			d := &awaiting{ctx: ctx, app: app}
			page := pages.NewOrderPage(d, app.Slices.Orders)
			if opts := page.Options(order); !slices.Contains(opts, args[1]) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s to %s is not offered (offered: %s); sending anyway\n",
					order.Status(), args[1], list(opts))
			}
			if _, err := d.result(page.ChangeStatus(order, args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s is now %s\n", args[0], args[1])
			return nil
		})
	},
}

// shopdesk order transitions [status]
var orderTransitionsCmd = &cobra.Command{
	Use:   "transitions [status]",
	Short: "Show the order status table, or where one status may go",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			syncTransitions(ctx, app)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				if !slices.Contains(transitions.Orders.Statuses(), args[0]) {
					return fmt.Errorf("unknown order status %q", args[0])
				}
				fmt.Fprintln(out, list(transitions.Orders.Transitions(args[0])))
				return nil
			}

			rows := [][]string{}
			for _, s := range transitions.Orders.Statuses() {
				rows = append(rows, []string{s, list(transitions.Orders.Transitions(s))})
			}
			return printTable(out, []string{"STATUS", "NEXT"}, rows)
		})
	},
}

// syncTransitions loads the server's order table. The built-in table is
// kept when the server has none.
func syncTransitions(ctx context.Context, app *kernel.App) {
	if err := app.SyncTransitions(ctx); err != nil {
		logger.Debug("using built-in order transitions", "error", err)
	}
}

func list(ss []string) string {
	if len(ss) == 0 {
		return "-"
	}
	return strings.Join(ss, ", ")
}

func init() {
	orderCmd.AddCommand(orderStatusCmd)
	orderCmd.AddCommand(orderTransitionsCmd)
}
