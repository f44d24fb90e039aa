package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seb7887/listkit/internal/app"
)

func newInitCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the task table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Init(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created table %s\n", r.cfg.List.Table)
				return nil
			})
		},
	}
}

func newAddCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "add <list> <title...>",
		Short: "Append a task to the bottom of a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd.Context(), func(a *app.App) error {
				t, err := a.Add(cmd.Context(), args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", t.ID, *t.Position)
				return nil
			})
		},
	}
}

func newListCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <list>",
		Aliases: []string{"list"},
		Short:   "Show the tasks of a list in order",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd.Context(), func(a *app.App) error {
				tasks, err := a.Tasks(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "POS\tID\tTITLE\tDONE")
				for _, t := range tasks {
					fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", *t.Position, t.ID, t.Title, t.Done)
				}
				return w.Flush()
			})
		},
	}
}

func newMoveCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:       "move <id> up|down|top|bottom",
		Short:     "Move a task within its list",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"up", "down", "top", "bottom"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := app.ParseDirection(args[1])
			if err != nil {
				return err
			}
			return r.withApp(cmd.Context(), func(a *app.App) error {
				t, err := a.Move(cmd.Context(), args[0], dir)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", t.ID, *t.Position)
				return nil
			})
		},
	}
}

func newRemoveCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Delete a task and close the gap it leaves",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd.Context(), func(a *app.App) error {
				return a.Remove(cmd.Context(), args[0])
			})
		},
	}
}

func newVerifyCommand(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <list>",
		Short: "Check that a list holds positions 1..n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Verify(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}
