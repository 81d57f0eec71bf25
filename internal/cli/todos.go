package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"teacherdesk/internal/todo"
	"teacherdesk/internal/worklog"
)

func newToDosCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Manage to-dos",
	}
	cmd.AddCommand(
		newToDosListCmd(o),
		newToDosAddCmd(o),
		newToDosCompleteCmd(o, "done", "Mark a to-do as completed", true),
		newToDosCompleteCmd(o, "undo", "Mark a to-do as not completed", false),
		newToDosDeleteCmd(o),
		newToDosExtractCmd(o),
	)
	return cmd
}

func newToDosListCmd(o *options) *cobra.Command {
	var pending bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List to-dos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := o.app.ToDos.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			if pending {
				open := make([]todo.ToDo, 0, len(list))
				for _, t := range list {
					if !t.IsCompleted {
						open = append(open, t)
					}
				}
				list = open
			}
			return o.printToDos(cmd, list)
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "Only show to-dos that are not completed")
	return cmd
}

func newToDosAddCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <content...>",
		Short: "Add a to-do",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := o.app.ToDos.Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added to-do %d.\n", created.ID)
			return nil
		},
	}
}

func newToDosCompleteCmd(o *options, use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			updated, err := o.app.ToDos.SetCompleted(cmd.Context(), id, completed)
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", checkbox(updated.IsCompleted), updated.Content)
			return nil
		},
	}
}

func newToDosDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a to-do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := o.app.ToDos.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted to-do %d.\n", id)
			return nil
		},
	}
}

func newToDosExtractCmd(o *options) *cobra.Command {
	var fromDate string
	cmd := &cobra.Command{
		Use:   "extract [text...]",
		Short: "Create to-dos from work-log text",
		Long: `Ask the backend to pull action items out of work-log text and add them
as to-dos. The text is either given as arguments or, with --from, taken from
the saved work log of that date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if fromDate != "" {
				wl, st, err := o.app.WorkLogs.FetchByDate(cmd.Context(), fromDate)
				if err != nil {
					return err
				}
				if st != worklog.Present {
					return fmt.Errorf("no work log saved for %s", fromDate)
				}
				text = wl.Content
			}
			if strings.TrimSpace(text) == "" {
				return errors.New("nothing to extract from: pass text or --from <date>")
			}

			extracted, err := o.app.ToDos.ExtractFromLog(cmd.Context(), text)
			o.printNotifications(cmd)
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, extracted)
			}
			for _, t := range extracted {
				fmt.Fprintf(cmd.OutOrStdout(), "  %d  %s\n", t.ID, t.Content)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fromDate, "from", "", "Use the saved work log of this date (YYYY-MM-DD)")
	return cmd
}

// printNotifications shows what the stores reported to the user. JSON
// output stays machine readable, so they go to stderr there.
func (o *options) printNotifications(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	if o.asJSON {
		out = cmd.ErrOrStderr()
	}
	for _, n := range o.app.Recent.Notifications() {
		fmt.Fprintln(out, n.Message)
	}
}

func (o *options) printToDos(cmd *cobra.Command, list []todo.ToDo) error {
	if o.asJSON {
		return o.printJSON(cmd, list)
	}
	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tCONTENT")
	for _, t := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, checkbox(t.IsCompleted), t.Content)
	}
	return w.Flush()
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
