package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/crucial707/applog/cmd/cli/client"
	"github.com/crucial707/applog/cmd/cli/config"
	"github.com/crucial707/applog/cmd/cli/output"
	"github.com/crucial707/applog/cmd/cli/root"
	"github.com/crucial707/applog/internal/models"
	"github.com/spf13/cobra"
)

// InitAuth registers auth-related CLI commands (login, logout, whoami) on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd())
}

// loginCmd creates a command that logs in a user and stores the JWT token locally.
func loginCmd() *cobra.Command {
	var username, password string
	var register bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the applog API",
		Long:  "Authenticate with the applog API and store a JWT token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return fmt.Errorf("username is required")
			}
			if password == "" {
				password = os.Getenv("APPLOG_PASSWORD")
			}
			if password == "" {
				var err error
				if password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
			}
			creds := map[string]string{"username": username, "password": password}

			// Optionally register the user first
			if register {
				if err := client.Do(client.Request{Method: "POST", Path: "/register", Body: creds}, nil); err != nil {
					return fmt.Errorf("failed to register user: %w", err)
				}
			}

			var loginResp struct {
				Token string      `json:"token"`
				User  models.User `json:"user"`
			}
			if err := client.Do(client.Request{Method: "POST", Path: "/login", Body: creds}, &loginResp); err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if loginResp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}

			if err := config.SaveToken(loginResp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Printf("Logged in as %s (%s). Token stored locally.\n", loginResp.User.Username, loginResp.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password (or APPLOG_PASSWORD; prompted when empty)")
	cmd.Flags().BoolVar(&register, "register", false, "Register the user before logging in")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var user models.User
			if err := client.Do(client.Request{Method: "GET", Path: "/me", Auth: true}, &user); err != nil {
				return err
			}
			if root.JSONOutput {
				return output.PrintJSON(user)
			}
			output.RenderTable(
				[]string{"ID", "Username", "Role", "Organisation"},
				[][]interface{}{{user.ID, user.Username, user.Role, user.Organisation}},
			)
			return nil
		},
	}
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
