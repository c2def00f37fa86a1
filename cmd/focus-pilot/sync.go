package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push the local state to the remote backend now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.remote.Enabled() {
				return errors.New("remote sync is not configured")
			}

			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			defer o.Close()

			res, err := o.PushNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "push %s at %s\n", res.Status, res.Timestamp)
			return nil
		},
	}
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the remote snapshot into local storage",
		Long: `Pull the remote snapshot and overwrite the local collections it carries.
A snapshot without user stats is ignored and local data is kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			defer a.Close()
			if !a.remote.Enabled() {
				return errors.New("remote sync is not configured")
			}

			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			defer o.Close()

			o.Bootstrap(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "local state: %d goals, %d tasks, level %d\n",
				len(o.Goals()), len(o.Tasks()), o.UserStats().Level)
			return nil
		},
	}
}
