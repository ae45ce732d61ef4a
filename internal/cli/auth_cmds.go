package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-profile-uploader/auth"
	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session on this device",
		Example: `  profilepic login --email provider@example.com
  profilepic login --email admin@example.com --password 'Password123'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			s, err := auth.NewClient(a.cfg, a.sessions).Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", email, s.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password, prompted for when empty")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session stored on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.NewClient(a.cfg, a.sessions).Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in role and its cached profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := auth.NewClient(a.cfg, a.sessions).Current(cmd.Context())
			if errors.Is(err, apperrors.ErrNotLoggedIn) || errors.Is(err, apperrors.ErrMissingToken) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Role: %s\n", s.Role)
			if profile, err := s.Profile(s.Role); err == nil && len(profile) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Profile: %s\n", profile)
			}
			return nil
		},
	}
}
