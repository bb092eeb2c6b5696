package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/five82/lectern/internal/app"
	"github.com/five82/lectern/internal/moodle"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to a Moodle site and save the session",
	Long: `Exchanges a username and password for a mobile web-service token, tests it
and saves the site URL and token. Pass --token to use an existing token
instead. Missing values are prompted for.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session and cached data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the connected site and user",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	loginCmd.Flags().String("url", "", "site URL, for example https://moodle.example.edu")
	loginCmd.Flags().String("username", "", "account username")
	loginCmd.Flags().String("token", "", "existing web-service token (skips the password exchange)")
	loginCmd.Flags().Bool("auto-connect", true, "connect automatically on start")
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	siteURL, _ := cmd.Flags().GetString("url")
	username, _ := cmd.Flags().GetString("username")
	token, _ := cmd.Flags().GetString("token")
	autoConnect, _ := cmd.Flags().GetBool("auto-connect")

	var err error
	if siteURL == "" {
		prompt := promptui.Prompt{Label: "Site URL", Validate: validateSiteURL}
		if siteURL, err = prompt.Run(); err != nil {
			return fmt.Errorf("site url: %w", err)
		}
	}

	var password string
	if token == "" {
		if username == "" {
			prompt := promptui.Prompt{Label: "Username", Validate: required("username")}
			if username, err = prompt.Run(); err != nil {
				return fmt.Errorf("username: %w", err)
			}
		}
		prompt := promptui.Prompt{Label: "Password", Mask: '*', Validate: required("password")}
		if password, err = prompt.Run(); err != nil {
			return fmt.Errorf("password: %w", err)
		}
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		var info moodle.SiteInfo
		if token != "" {
			info, err = a.LoginWithToken(ctx, siteURL, strings.TrimSpace(token), autoConnect)
		} else {
			info, err = a.Login(ctx, siteURL, strings.TrimSpace(username), password, autoConnect)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s as %s.\n", info.SiteName, info.FullName)
		return nil
	})
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		out := cmd.OutOrStdout()
		cfg, ok := a.Session.Current()
		if !ok {
			fmt.Fprintln(out, "Not connected. Run `lectern login`.")
			return nil
		}
		fmt.Fprintf(out, "Site:         %s\n", cfg.URL)
		fmt.Fprintf(out, "Auto-connect: %t\n", cfg.AutoConnect)
		fmt.Fprintf(out, "Session file: %s\n", a.Session.Path())

		info, err := a.Client.SiteInfo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Name:         %s\n", info.SiteName)
		fmt.Fprintf(out, "User:         %s (%s)\n", info.FullName, info.Username)
		if info.Release != "" {
			fmt.Fprintf(out, "Release:      %s\n", info.Release)
		}
		fmt.Fprintf(out, "Functions:    %d\n", len(info.Functions))
		return nil
	})
}

func validateSiteURL(input string) error {
	if _, err := moodle.ParseBaseURL(input); err != nil {
		return err
	}
	return nil
}

func required(name string) promptui.ValidateFunc {
	return func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}
