package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "archive <id>...",
		Short: "Archive completed sessions",
		Long: `Archives one or more completed sessions, snapshotting their audit
counts. With multiple IDs each session is archived independently;
failures are reported per session and do not stop the rest.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			defer a.flush()
			who, err := a.actor(actor)
			if err != nil {
				return err
			}
			return runArchive(cmd, a, who, args)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	return cmd
}

func runArchive(cmd *cobra.Command, a *app, who string, ids []string) error {
	out := cmd.OutOrStdout()

	if len(ids) == 1 {
		rec, err := a.archive.Archive(ids[0], who)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Archived session %s (%d activity records, %d transitions)\n",
			ids[0], rec.ActivityCount, rec.TransitionCount)
		return nil
	}

	results := a.archive.BulkArchive(ids, who)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: FAILED: %v\n", r.SessionID, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s: archived\n", r.SessionID)
	}
	fmt.Fprintf(out, "\nArchived %d of %d sessions.\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions could not be archived", failed, len(results))
	}
	return nil
}

func newUnarchiveCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "unarchive <id>",
		Short: "Restore an archived session",
		Long:  "Returns an archived session to completed status. The archive record is stamped, not deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			defer a.flush()
			who, err := a.actor(actor)
			if err != nil {
				return err
			}

			if err := a.archive.Unarchive(args[0], who); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unarchived session %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	return cmd
}
