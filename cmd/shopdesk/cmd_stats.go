package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/app/api"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
)

var (
	statsFromFlag string
	statsToFlag   string
)

// shopdesk stats
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the dashboard statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := api.Query{Filters: map[string]string{}}
		if statsFromFlag != "" {
			q.Filters["from"] = statsFromFlag
		}
		if statsToFlag != "" {
			q.Filters["to"] = statsToFlag
		}
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			if _, err := app.Request(ctx, app.Slices.Stats.Request(q)); err != nil {
				return err
			}
			s := app.State().Stats.Data
			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, s)
			}

			rows := [][]string{
				{"Revenue", money(s.TotalRevenue)},
				{"Orders", strconv.Itoa(s.TotalOrders)},
				{"Products", strconv.Itoa(s.TotalProducts)},
				{"Users", strconv.Itoa(s.TotalUsers)},
			}
			if err := printTable(out, []string{"METRIC", "VALUE"}, rows); err != nil {
				return err
			}

			if len(s.OrdersByStatus) > 0 {
				statuses := make([]string, 0, len(s.OrdersByStatus))
				for st := range s.OrdersByStatus {
					statuses = append(statuses, st)
				}
				sort.Strings(statuses)
				rows = rows[:0]
				for _, st := range statuses {
					rows = append(rows, []string{st, strconv.Itoa(s.OrdersByStatus[st])})
				}
				fmt.Fprintln(out)
				if err := printTable(out, []string{"ORDER STATUS", "COUNT"}, rows); err != nil {
					return err
				}
			}

			if len(s.RevenueByMonth) > 0 {
				rows = rows[:0]
				for _, m := range s.RevenueByMonth {
					rows = append(rows, []string{m.Month, money(m.Revenue)})
				}
				fmt.Fprintln(out)
				return printTable(out, []string{"MONTH", "REVENUE"}, rows)
			}
			return nil
		})
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFromFlag, "from", "", "Start date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsToFlag, "to", "", "End date (YYYY-MM-DD)")
}
