package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/app/pages"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
)

var repairYesFlag bool

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair request workflow",
}

// shopdesk repair status <id> <status>
var repairStatusCmd = &cobra.Command{
	Use:   "status <id> <status>",
	Short: "Move a repair request to another status (completed asks for confirmation)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			res, err := app.Request(ctx, app.Slices.RepairRequests.Detail(args[0]))
			if err != nil {
				return err
			}
			r, _ := res.Payload.(models.RepairRequest)

			ask := pages.ConfirmFunc(func(prompt string) bool {
				return repairYesFlag || confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
			})
			d := &awaiting{ctx: ctx, app: app}
			page := pages.NewRepairPage(d, app.Slices.RepairRequests, ask)
			if _, err := d.result(page.ChangeStatus(r, args[1])); err != nil {
				return fmt.Errorf("repair %s: %w (offered: %s)", args[0], err, list(page.Options(r)))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Repair request %s is now %s\n", args[0], args[1])
			return nil
		})
	},
}

func init() {
	repairStatusCmd.Flags().BoolVarP(&repairYesFlag, "yes", "y", false, "Confirm without asking")
	repairCmd.AddCommand(repairStatusCmd)
}
