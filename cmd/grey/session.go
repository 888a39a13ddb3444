package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/thesisgrey/greylit/internal/activity"
	"github.com/thesisgrey/greylit/internal/dashboard"
	"github.com/thesisgrey/greylit/internal/session"
	"github.com/thesisgrey/greylit/internal/workflow"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Review session management commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionEditCmd())
	cmd.AddCommand(newSessionDeleteCmd())
	cmd.AddCommand(newSessionDuplicateCmd())
	cmd.AddCommand(newSessionTransitionCmd())
	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var (
		configPath  string
		actor       string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new review session",
		Long:  "Creates a review session in draft status, owned by the acting user.",
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

			sess, err := a.store.Create(who, title, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s)\n", sess.ID, sess.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	cmd.Flags().StringVar(&title, "title", "", "session title (required)")
	cmd.Flags().StringVar(&description, "description", "", "session description")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newSessionListCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		status     string
		search     string
		page       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your review sessions",
		Long:  "Lists the acting user's sessions, active work first. Output is formatted as a table.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(configPath)
			if err != nil {
				return err
			}
			who, err := a.actor(actor)
			if err != nil {
				return err
			}

			result, err := dashboard.ListSessions(a.db, who, dashboard.Filters{
				Status: status,
				Search: search,
				Page:   page,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Total == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tCREATED\tUPDATED")
			for _, s := range result.Sessions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					s.ID, truncate(s.Title, titleWidth()), s.Status,
					formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
			}
			w.Flush()
			if int64(result.Page*result.PerPage) < result.Total {
				fmt.Fprintf(out, "\nPage %d of %d sessions; use --page for more.\n", result.Page, result.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive title/description search")
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show session details",
		Long:  "Displays full details of a session including its status history and recent activity.",
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
			return runSessionShow(cmd, a, who, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	return cmd
}

func runSessionShow(cmd *cobra.Command, a *app, who, id string) error {
	sess, err := a.store.Get(id, who)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", sess.ID)
	fmt.Fprintf(out, "Title:       %s\n", sess.Title)
	fmt.Fprintf(out, "Status:      %s\n", sess.Status)
	fmt.Fprintf(out, "Owner:       %s\n", sess.OwnerID)
	fmt.Fprintf(out, "Created:     %s\n", formatTime(sess.CreatedAt))
	fmt.Fprintf(out, "Updated:     %s\n", formatTime(sess.UpdatedAt))
	fmt.Fprintf(out, "In status:   since %s\n", formatTime(sess.StatusEnteredAt))
	if sess.Description != "" {
		fmt.Fprintf(out, "\nDescription:\n%s\n", sess.Description)
	}

	if next := workflow.Transitions[sess.Status]; len(next) > 0 {
		fmt.Fprintf(out, "\nNext statuses:")
		for _, s := range next {
			fmt.Fprintf(out, " %s", s)
		}
		fmt.Fprintln(out)
	}

	history, err := activity.History(a.db, sess.ID)
	if err != nil {
		return err
	}
	if len(history) > 0 {
		fmt.Fprintln(out, "\nStatus history:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  WHEN\tFROM\tTO\tSPENT\tCLASS")
		for _, e := range history {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				formatTime(e.CreatedAt), e.FromStatus, e.ToStatus,
				formatDuration(e.Duration), e.Classification)
		}
		w.Flush()
	}

	timeline, err := activity.Timeline(a.db, sess.ID, 10)
	if err != nil {
		return err
	}
	if len(timeline) > 0 {
		fmt.Fprintln(out, "\nRecent activity:")
		for _, rec := range timeline {
			fmt.Fprintf(out, "  [%s] %s (%s): %s\n",
				formatTime(rec.CreatedAt), rec.Kind, rec.Actor, rec.Description)
		}
	}

	return nil
}

func newSessionEditCmd() *cobra.Command {
	var (
		configPath  string
		actor       string
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a session's title or description",
		Long:  "Updates session fields. Only draft and strategy_ready sessions are editable.",
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

			var opts session.UpdateOpts
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if opts.Title == nil && opts.Description == nil {
				return fmt.Errorf("no fields to update; use --title or --description")
			}

			sess, err := a.store.Update(args[0], who, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated session %s\n", sess.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	return cmd
}

func newSessionDeleteCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft session",
		Long:  "Permanently deletes a session. Only draft sessions can be deleted; anything further along must be archived instead.",
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

			if err := a.store.Delete(args[0], who); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	return cmd
}

func newSessionDuplicateCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Duplicate a session as a new draft",
		Long:  "Copies a session's title and description into a fresh draft with its own audit trail. The source is untouched.",
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

			copy, err := a.store.Duplicate(args[0], who)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s) from %s\n", copy.ID, copy.Title, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	return cmd
}

func newSessionTransitionCmd() *cobra.Command {
	var (
		configPath string
		actor      string
		automatic  bool
	)

	cmd := &cobra.Command{
		Use:   "transition <id> <status>",
		Short: "Move a session to a new status",
		Long:  "Requests a status transition. Illegal moves are rejected with the list of statuses reachable from the current one.",
		Args:  cobra.ExactArgs(2),
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

			sess, entry, err := a.store.RequestTransition(args[0], workflow.Status(args[1]), who, automatic)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s: %s -> %s (%s, spent %s)\n",
				sess.ID, entry.FromStatus, entry.ToStatus, entry.Classification,
				formatDuration(entry.Duration))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Greylit config file")
	cmd.Flags().StringVar(&actor, "actor", "", "acting user (defaults to config)")
	cmd.Flags().BoolVar(&automatic, "automatic", false, "record the transition as system-initiated")
	return cmd
}
