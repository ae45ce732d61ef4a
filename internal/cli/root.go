// Package cli is the profilepic command line: log in once, then upload or
// remove the profile picture of the logged in account.
package cli

import (
	"errors"

	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-profile-uploader/internal/config"
	"github.com/jrsteele09/go-profile-uploader/internal/logging"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{openStore: openStore})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profilepic",
		Short: "Manage your marketplace profile picture",
		Long: `profilepic uploads and removes the profile picture of an admin,
provider or customer account on the marketplace API.

Log in first; the session is kept on this device until you log out.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			a.cfg = config.New()
			logging.Setup(a.cfg.GetEnv(), a.cfg.GetLogLevel())
			return a.open(cmd.Context())
		},
	}

	cmd.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newUploadCmd(a),
		newRemoveCmd(a),
	)

	// cobra skips post-run hooks when RunE fails, so the store is closed here
	for _, sub := range cmd.Commands() {
		if sub.RunE != nil {
			sub.RunE = closeAfter(a, sub.RunE)
		}
	}

	return cmd
}

func closeAfter(a *app, run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.close())
		}()
		return run(cmd, args)
	}
}
