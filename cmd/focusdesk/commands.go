package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"focusdesk/internal/backup"
	"focusdesk/internal/calendar"
	"focusdesk/internal/event"
	"focusdesk/internal/pomodoro"
)

func (c *cli) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
}

func checkMark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

func (c *cli) habitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habit",
		Short: "Manage habits",
	}

	var category string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.app.Habits.Add(cmd.Context(), strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created habit %s (%s)\n", h.ID, h.Name)
			return nil
		},
	}
	add.Flags().StringVarP(&category, "category", "c", "", "Category (default General)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List habits with their streaks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today := calendar.Key(c.app.Clock.Now())
			w := c.table()
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tTODAY\tSTREAK")
			for _, h := range c.app.Habits.List(cmd.Context()) {
				fmt.Fprintf(w, "%s\t%s\t%s\t[%s]\t%d\n", h.ID, h.Name, h.Category, checkMark(h.Done(today)), h.Streak)
			}
			return w.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Habits.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted habit %s\n", args[0])
			return nil
		},
	}

	var date string
	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark or unmark a day (today by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := date
			if d == "" {
				d = calendar.Key(c.app.Clock.Now())
			}
			h, err := c.app.Habits.ToggleCompletion(cmd.Context(), args[0], d)
			if err != nil {
				return err
			}
			state := "unmarked"
			if h.Done(d) {
				state = "marked"
			}
			fmt.Fprintf(c.out, "%s %s on %s, streak %d\n", h.Name, state, d, h.Streak)
			return nil
		},
	}
	toggle.Flags().StringVarP(&date, "date", "d", "", "Day to toggle (YYYY-MM-DD)")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show habits completed today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.app.Habits.Stats(cmd.Context())
			fmt.Fprintf(c.out, "%d/%d habits completed today\n", s.CompletedToday, s.TotalHabits)
			return nil
		},
	}

	week := &cobra.Command{
		Use:   "week <id>",
		Short: "Show the last seven days of a habit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := c.app.Habits.Week(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := c.table()
			for _, d := range days {
				fmt.Fprintf(w, "%s\t[%s]\n", d.Date, checkMark(d.Done))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(add, list, del, toggle, stats, week)
	return cmd
}

func (c *cli) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	add := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.app.Tasks.Add(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Added task %s\n", t.ID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := c.table()
			fmt.Fprintln(w, "ID\tDONE\tTEXT")
			for _, t := range c.app.Tasks.List(cmd.Context()) {
				fmt.Fprintf(w, "%s\t[%s]\t%s\n", t.ID, checkMark(t.Completed), t.Text)
			}
			return w.Flush()
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Complete or reopen a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.app.Tasks.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "reopened"
			if t.Completed {
				state = "completed"
			}
			fmt.Fprintf(c.out, "Task %s %s\n", t.ID, state)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Deleted task %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, toggle, del)
	return cmd
}

func (c *cli) noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Read and write daily notes",
	}

	get := &cobra.Command{
		Use:   "get [date]",
		Short: "Print the note for a day (today by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := calendar.Key(c.app.Clock.Now())
			if len(args) == 1 {
				date = args[0]
			}
			content, err := c.app.Notes.Get(cmd.Context(), date)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, content)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <date> <text>",
		Short: "Replace the note for a day; empty text removes it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Notes.Save(cmd.Context(), args[0], strings.Join(args[1:], " "))
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List days that have a note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range c.app.Notes.Dates(cmd.Context()) {
				fmt.Fprintln(c.out, d)
			}
			return nil
		},
	}

	cmd.AddCommand(get, set, list)
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show a day's summary and the pomodoros of the week before it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := c.app.Stats.Summary(cmd.Context(), date)
			if err != nil {
				return err
			}
			weekly, err := c.app.Stats.Weekly(cmd.Context(), sum.Date)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.out, "%s\n", sum.Date)
			fmt.Fprintf(c.out, "  pomodoros:       %d\n", sum.Pomodoros)
			fmt.Fprintf(c.out, "  tasks completed: %d\n", sum.TasksCompleted)
			fmt.Fprintf(c.out, "  habits:          %d/%d\n", sum.HabitsCompleted, sum.HabitsTotal)
			w := c.table()
			for _, d := range weekly {
				fmt.Fprintf(w, "%s\t%s\t%d\n", d.Date, strings.Repeat("#", d.Count), d.Count)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Day (YYYY-MM-DD, today by default)")
	return cmd
}

func (c *cli) themeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the theme preference",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print mode and selected theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			th := c.app.Prefs.Theme(cmd.Context())
			fmt.Fprintf(c.out, "mode: %s\ntheme: %s\n", th.Mode, th.Selected)
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set <theme>",
		Short:     "Select a colour theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"light", "dark", "ocean", "sunset", "forest"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Prefs.Select(cmd.Context(), args[0])
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := c.app.Prefs.ToggleMode(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "mode: %s\n", mode)
			return nil
		},
	}

	cmd.AddCommand(get, set, toggle)
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:       "export <csv|json>",
		Short:     "Export habits as CSV or a full JSON backup",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"csv", "json"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := c.out
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			switch args[0] {
			case "csv":
				return c.app.Backup.ExportCSV(cmd.Context(), w)
			case "json":
				return c.app.Backup.ExportJSON(cmd.Context(), w)
			default:
				return fmt.Errorf("unknown export format %q", args[0])
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore habits and tasks from a JSON backup",
		Long:  "Restore habits and tasks from a JSON backup. This overwrites all current habits and tasks, so --yes is required.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := c.app.Backup.Import(cmd.Context(), f, yes)
			if errors.Is(err, backup.ErrNotConfirmed) {
				return fmt.Errorf("%w (pass --yes)", err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Restored %d habits and %d tasks\n", res.Habits, res.Tasks)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm overwriting current data")
	return cmd
}

func (c *cli) timerCmd() *cobra.Command {
	var taskID string
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Run one work session in the foreground",
		Long:  "Run one work session in the foreground. The session is counted when it ends; Ctrl-C abandons it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if taskID != "" {
				if err := c.app.Tasks.Select(ctx, taskID); err != nil {
					return err
				}
			}

			finished := make(chan struct{})
			c.app.Bus.Subscribe(event.PomodoroTick, func(_ context.Context, e event.Event) {
				snap := c.app.Timer.Snapshot()
				if snap.Mode == pomodoro.ModeWork && snap.Remaining%60 == 0 {
					fmt.Fprintf(c.out, "%02d:00 left\n", snap.Remaining/60)
				}
			})
			c.app.Bus.Subscribe(event.PomodoroCompleted, func(context.Context, event.Event) {
				close(finished)
			})

			snap := c.app.Timer.Snapshot()
			fmt.Fprintf(c.out, "Work session started (%d min)\n", snap.Total/60)
			c.app.Timer.Start(ctx)

			select {
			case <-finished:
				fmt.Fprintf(c.out, "Session complete, take a %d minute break\n", c.app.Timer.Snapshot().Total/60)
				return nil
			case <-ctx.Done():
				c.app.Timer.Pause()
				fmt.Fprintln(c.out, "Session abandoned")
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&taskID, "task", "t", "", "Task to focus on")
	return cmd
}
