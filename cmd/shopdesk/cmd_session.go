package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/shopdesk/app/slices"
	"github.com/shashiranjanraj/shopdesk/internal/kernel"
)

var (
	loginEmailFlag    string
	loginPasswordFlag string
)

// shopdesk login
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and keep the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPasswordFlag
		if password == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no password given")
			}
			password = strings.TrimRight(line, "\r\n")
		}
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			if _, err := app.Request(ctx, app.Slices.Session.Login(loginEmailFlag, password)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", app.State().Session.User.Email)
			return nil
		})
	},
}

// shopdesk logout
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and forget its token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			if _, err := app.Request(ctx, app.Slices.Session.Logout()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		})
	},
}

// shopdesk whoami
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who the stored session belongs to",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *kernel.App) error {
			_, err := app.Request(ctx, app.Slices.Session.WhoAmI())
			var failed slices.Failed
			if err != nil && !(errors.As(err, &failed) && failed.Expired) {
				return err
			}
			st := app.State().Session
			if !st.LoggedIn || st.User == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if jsonFlag {
				return printJSON(cmd.OutOrStdout(), st.User)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", st.User.Email, st.User.Role)
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmailFlag, "email", "e", "", "Admin email")
	loginCmd.Flags().StringVarP(&loginPasswordFlag, "password", "p", "", "Password (read from stdin when omitted)")
	_ = loginCmd.MarkFlagRequired("email")
}
