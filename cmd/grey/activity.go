package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/thesisgrey/greylit/internal/activity"
	"github.com/thesisgrey/greylit/internal/models"
)

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Audit trail commands",
	}

	cmd.AddCommand(newActivityTimelineCmd())
	cmd.AddCommand(newActivityCommentCmd())
	cmd.AddCommand(newActivityDeleteCommentCmd())
	return cmd
}

func newActivityTimelineCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "timeline <session-id>",
		Short: "Show a session's audit timeline",
		Long:  "Lists the session's audit records newest first.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			who, err := a.actor(actor)
			if err != nil {
				return err
			}

			// Ownership check before reading the trail.
			if _, err := a.store.Get(args[0], who); err != nil {
				return err
			}

			records, err := activity.Timeline(a.db, args[0], limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No activity.")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(out, "#%d [%s] %s (%s): %s\n",
					rec.ID, formatTime(rec.CreatedAt), rec.Kind, rec.Actor, rec.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records to show")
	return cmd
}

func newActivityCommentCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		message    string
	)

	cmd := &cobra.Command{
		Use:   "comment <session-id>",
		Short: "Add a comment to a session's trail",
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

			if _, err := a.store.Get(args[0], who); err != nil {
				return err
			}

			rec, err := a.log.Log(a.db, activity.LogOpts{
				SessionID:   args[0],
				Kind:        models.ActivityComment,
				Actor:       who,
				Description: message,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added comment #%d to session %s\n", rec.ID, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "comment text (required)")
	cmd.MarkFlagRequired("message")
	return cmd
}

func newActivityDeleteCommentCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "delete-comment <record-id>",
		Short: "Delete one of your comments",
		Long:  "Deletes a comment record. Only the comment's author may delete it, and the deletion itself is logged.",
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

			recordID, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid record id %q", args[0])
			}
			if err := a.log.DeleteComment(a.db, uint(recordID), who); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment #%d\n", recordID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	return cmd
}
