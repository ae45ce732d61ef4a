package cli

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-profile-uploader/tenants"
	"github.com/jrsteele09/go-profile-uploader/upload"
	"github.com/spf13/cobra"
)

func newUploadCmd(a *app) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a new profile picture",
		Example: `  profilepic upload ./me.jpg
  profilepic upload ./logo.jpg --as provider`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tenantFor(cmd, as)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			progress := newProgressPrinter(out)
			ctl := upload.NewController(upload.NewService(a.cfg, a.sessions), t,
				upload.WithNotifier(newTerminalNotifier(out)),
				upload.WithProgressListener(progress.Print),
			)

			_, err = ctl.RequestUpload(cmd.Context(), upload.FileImage(args[0]))
			progress.Done()
			return err
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "Tenant type (admin, provider, customer), defaults to the logged in role")

	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var (
		as  string
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove the current profile picture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.tenantFor(cmd, as)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var confirmer upload.Confirmer = newLineConfirmer(cmd.InOrStdin(), out)
			if yes {
				confirmer = upload.ConfirmFunc(confirmAll)
			}
			ctl := upload.NewController(upload.NewService(a.cfg, a.sessions), t,
				upload.WithConfirmer(confirmer),
				upload.WithNotifier(newTerminalNotifier(out)),
			)

			_, err = ctl.RequestRemoval(cmd.Context())
			if errors.Is(err, upload.ErrRemovalDeclined) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "Tenant type (admin, provider, customer), defaults to the logged in role")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Remove without asking for confirmation")

	return cmd
}

// tenantFor resolves --as, falling back to the session's role. An
// unreadable session is left for the upload service to report.
func (a *app) tenantFor(cmd *cobra.Command, as string) (tenants.Type, error) {
	if as != "" {
		return tenants.Parse(as)
	}
	s, err := a.sessions.Load(cmd.Context())
	if err != nil || !s.Role.Valid() {
		return tenants.Customer, nil
	}
	return s.Role, nil
}
