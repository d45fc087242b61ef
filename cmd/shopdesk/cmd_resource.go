package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
)

// resources maps the names accepted on the command line to features.
var resources = map[string]string{
	"category":        slices.Categories,
	"categories":      slices.Categories,
	"product":         slices.Products,
	"products":        slices.Products,
	"order":           slices.Orders,
	"orders":          slices.Orders,
	"news":            slices.News,
	"review":          slices.Reviews,
	"reviews":         slices.Reviews,
	"repair-service":  slices.RepairServices,
	"repair-services": slices.RepairServices,
	"repairservice":   slices.RepairServices,
	"repair":          slices.RepairRequests,
	"repairs":         slices.RepairRequests,
	"repair-request":  slices.RepairRequests,
	"repair-requests": slices.RepairRequests,
	"repairrequest":   slices.RepairRequests,
	"staff":           slices.StaffMembers,
}

var resourceNames = []string{
	"categories", "products", "orders", "news", "reviews", "repair-services", "repairs", "staff",
}

func resolveResource(name string) (string, error) {
	if f, ok := resources[strings.ToLower(name)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown resource %q (one of: %s)", name, strings.Join(resourceNames, ", "))
}

func collectionOf(app *kernel.App, name string) (slices.Collection, error) {
	feature, err := resolveResource(name)
	if err != nil {
		return nil, err
	}
	c, _ := app.Slices.Collection(feature)
	return c, nil
}

var (
	listSearchFlag string
	listStatusFlag string
	listPageFlag   int
	listLimitFlag  int
	listSortFlag   string
	listDescFlag   bool
	listExportFlag string
)

// listQuery builds the LIST query from the list flags.
func listQuery() api.Query {
	q := api.Query{Page: max(listPageFlag, 1), Limit: listLimitFlag, Filters: map[string]string{}}
	if s := strings.TrimSpace(listSearchFlag); s != "" {
		q.Filters[api.FilterKeyword] = s
	}
	if s := strings.TrimSpace(listStatusFlag); s != "" && s != api.StatusAll {
		q.Filters[api.FilterStatus] = s
	}
	if listSortFlag != "" {
		q.SortBy, q.SortOrder = listSortFlag, "asc"
		if listDescFlag {
			q.SortOrder = "desc"
		}
	}
	return q
}

// shopdesk list <resource>
var listCmd = &cobra.Command{
	Use:   "list <resource>",
	Short: "List a collection (categories, products, orders, news, reviews, repair-services, repairs, staff)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			c, err := collectionOf(app, args[0])
			if err != nil {
				return err
			}
			res, err := app.Request(ctx, c.List(listQuery()))
			if err != nil {
				return err
			}

			if listExportFlag != "" {
				data, err := json.MarshalIndent(res.Payload, "", "  ")
				if err != nil {
					return err
				}
				if err := app.Disks.Write(ctx, listExportFlag, data); err != nil {
					return fmt.Errorf("export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", listExportFlag)
			}

			out := cmd.OutOrStdout()
			header, rows, ok := pageRows(res.Payload)
			if jsonFlag || !ok {
				return printJSON(out, res.Payload)
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "No records.")
				return nil
			}
			if err := printTable(out, header, rows); err != nil {
				return err
			}
			page, pages, total := pagination(res.Payload)
			fmt.Fprintf(out, "\npage %d of %d, %d total\n", page, max(pages, 1), total)
			return nil
		})
	},
}

// shopdesk get <resource> <id>
var getCmd = &cobra.Command{
	Use:   "get <resource> <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			c, err := collectionOf(app, args[0])
			if err != nil {
				return err
			}
			if !c.Serves(slices.OpDetail) {
				return fmt.Errorf("%s has no detail view", args[0])
			}
			res, err := app.Request(ctx, c.Detail(args[1]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res.Payload)
		})
	},
}

var deleteYesFlag bool

// shopdesk delete <resource> <id>
var deleteCmd = &cobra.Command{
	Use:   "delete <resource> <id>",
	Short: "Delete one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !deleteYesFlag && !confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Delete %s %s?", args[0], args[1])) {
			return errors.New("not deleted")
		}
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			c, err := collectionOf(app, args[0])
			if err != nil {
				return err
			}
			if !c.Serves(slices.OpDelete) {
				return fmt.Errorf("%s cannot be deleted", args[0])
			}
			res, err := app.Request(ctx, c.Delete(args[1]))
			if err != nil {
				return err
			}
			msg := "Deleted"
			if d, ok := res.Payload.(slices.Deleted); ok && d.Message != "" {
				msg = d.Message
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		})
	},
}

// confirm asks prompt on w and reads a y/N answer from r.
func confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(r).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func init() {
	listCmd.Flags().StringVarP(&listSearchFlag, "search", "s", "", "Keyword filter")
	listCmd.Flags().StringVar(&listStatusFlag, "status", "", "Status filter (all for none)")
	listCmd.Flags().IntVar(&listPageFlag, "page", 1, "Page number")
	listCmd.Flags().IntVar(&listLimitFlag, "limit", 10, "Page size")
	listCmd.Flags().StringVar(&listSortFlag, "sort", "", "Sort field")
	listCmd.Flags().BoolVar(&listDescFlag, "desc", false, "Sort descending")
	listCmd.Flags().StringVar(&listExportFlag, "export", "", "Also write the page as JSON to a storage ref (e.g. s3://exports/orders.json)")

	deleteCmd.Flags().BoolVarP(&deleteYesFlag, "yes", "y", false, "Do not ask for confirmation")
}
