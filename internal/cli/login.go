package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/clinicli/pkg/clinic"
)

func newLoginCmd() *cobra.Command {
	var roleName, email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate a portal role with the clinic API",
		Long:  "Log in as admin or doctor and store the session token for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			portal, err := portalFor(roleName)
			if err != nil {
				return err
			}

			reader := bufio.NewReader(os.Stdin)
			if email == "" {
				fmt.Print("Email: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Print("Password: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}

			if err := portal.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}

			expiry, err := clinic.TokenExpiry(client.Token(portal.Role()))
			if err != nil {
				fmt.Printf("Logged in as %s.\n", portal.Role())
				return nil
			}
			fmt.Printf("Logged in as %s. Session expires %s.\n", portal.Role(), humanize.Time(expiry))
			return nil
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "admin", "Portal role (admin or doctor)")
	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	var roleName string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Drop a portal role's session",
		RunE: func(cmd *cobra.Command, args []string) error {
			portal, err := portalFor(roleName)
			if err != nil {
				return err
			}
			if err := portal.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Printf("Logged out of %s.\n", portal.Role())
			return nil
		},
	}

	cmd.Flags().StringVar(&roleName, "role", "admin", "Portal role (admin or doctor)")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored sessions for both roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, role := range clinic.Roles {
				token := client.Token(role)
				if token == "" {
					fmt.Printf("%-7s  not logged in\n", role)
					continue
				}
				expiry, err := clinic.TokenExpiry(token)
				switch {
				case err != nil:
					fmt.Printf("%-7s  logged in (unreadable token)\n", role)
				case expiry.Before(time.Now()):
					fmt.Printf("%-7s  session expired %s\n", role, humanize.Time(expiry))
				default:
					fmt.Printf("%-7s  logged in, expires %s\n", role, humanize.Time(expiry))
				}
			}
			return nil
		},
	}
}
