package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/app/models"
	"github.com/shashiranjanraj/shopdesk/app/pages"
	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
)

var aboutCmd = &cobra.Command{
	Use:   "about",
	Short: "The store's about-us document",
}

// shopdesk about show
var aboutShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the about-us document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			if _, err := app.Request(ctx, app.Slices.About.Fetch()); err != nil {
				return err
			}
			doc := app.State().About.Data
			if doc == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No store information yet. Create it with: shopdesk about create")
				return nil
			}
			if jsonFlag {
				return printJSON(cmd.OutOrStdout(), doc)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, doc.StoreName)
			if doc.Story != "" {
				fmt.Fprintf(out, "\n%s\n", doc.Story)
			}
			if len(doc.CoreValues) > 0 {
				fmt.Fprintf(out, "\nValues: %s\n", strings.Join(doc.CoreValues, ", "))
			}
			return nil
		})
	},
}

var aboutInput models.AboutInput

// shopdesk about create
var aboutCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the about-us document (only while none exists)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			if _, err := app.Request(ctx, app.Slices.About.Fetch()); err != nil {
				return err
			}
			d := &awaiting{ctx: ctx, app: app}
			page := pages.NewAboutPage(d, app.Slices.About, func() slices.AboutState { return app.State().About }, app.Disks)
			_, err := d.result(page.Create(ctx, aboutInput))
			if errors.Is(err, slices.ErrSingletonExists) {
				return fmt.Errorf("%w (use the admin to edit it)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created store information for %s\n", aboutInput.StoreName)
			return nil
		})
	},
}

func init() {
	f := aboutCreateCmd.Flags()
	f.StringVar(&aboutInput.StoreName, "name", "", "Store name")
	f.StringVar(&aboutInput.Story, "story", "", "Store story")
	f.StringSliceVar(&aboutInput.CoreValues, "value", nil, "Core value (repeatable)")
	f.StringVar(&aboutInput.Logo, "logo", "", "Logo file as a storage ref (e.g. local://logo.png)")
	_ = aboutCreateCmd.MarkFlagRequired("name")

	aboutCmd.AddCommand(aboutShowCmd)
	aboutCmd.AddCommand(aboutCreateCmd)
}
