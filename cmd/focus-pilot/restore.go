package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mklimuk/focus-pilot/pkg/integration/drive"
)

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Replace local state with the latest Drive backup",
		Long: `Download the latest snapshot backup from Google Drive and write it to
local storage. The server must not be running. The next start pushes the
restored state to the remote backend when sync is enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.cfg.Integrations
			if !cfg.Drive.Enabled {
				return errors.New("drive backup is not enabled")
			}
			svc, err := drive.NewService(cmd.Context(), cfg.Google.CredentialsFile, cfg.Google.Subject, cfg.Drive.FolderID)
			if err != nil {
				return err
			}

			snap, err := drive.NewBackup(svc, a.repo, a.logger.Named("drive")).Restore(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.store.SaveSnapshot(snap); err != nil {
				return fmt.Errorf("failed to save restored state: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d goals and %d tasks\n", len(snap.Goals), len(snap.Tasks))
			return nil
		},
	}
}
