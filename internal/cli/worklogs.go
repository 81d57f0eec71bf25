package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"teacherdesk/internal/worklog"
)

func newWorkLogsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "worklogs",
		Aliases: []string{"worklog", "logs"},
		Short:   "Manage daily work logs",
	}
	cmd.AddCommand(
		newWorkLogsListCmd(o),
		newWorkLogsShowCmd(o),
		newWorkLogsSaveCmd(o),
		newWorkLogsDeleteCmd(o),
	)
	return cmd
}

func newWorkLogsListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List work logs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := o.app.WorkLogs.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No work logs yet.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "DATE\tSUMMARY")
			for _, wl := range list {
				fmt.Fprintf(w, "%s\t%s\n", wl.Date, summary(wl.Content, 60))
			}
			return w.Flush()
		},
	}
}

func newWorkLogsShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show [date]",
		Short: "Show the work log of a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := dateArg(args)
			wl, st, err := o.app.WorkLogs.FetchByDate(cmd.Context(), date)
			if err != nil {
				return err
			}
			if o.asJSON {
				var body *worklog.WorkLog
				if st == worklog.Present {
					body = &wl
				}
				return o.printJSON(cmd, map[string]any{"date": date, "state": st.String(), "work_log": body})
			}
			if st != worklog.Present {
				fmt.Fprintf(cmd.OutOrStdout(), "No work log for %s.\n", date)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n%s\n", wl.Date, wl.Content)
			return nil
		},
	}
}

func newWorkLogsSaveCmd(o *options) *cobra.Command {
	var content, file string
	cmd := &cobra.Command{
		Use:   "save [date]",
		Short: "Write the work log of a date (default today)",
		Long:  `Write the work log of a date, replacing any log already saved for it.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading %s: %w", file, err)
				}
				content = string(raw)
			}
			if strings.TrimSpace(content) == "" {
				return errors.New("work log is empty: pass --content or --file")
			}
			saved, err := o.app.WorkLogs.Save(cmd.Context(), worklog.WorkLog{Date: dateArg(args), Content: content})
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, saved)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved work log for %s.\n", saved.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "Log text")
	cmd.Flags().StringVar(&file, "file", "", "Read the log text from a file")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	return cmd
}

func newWorkLogsDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <date>",
		Short: "Delete the work log of a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.app.WorkLogs.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted work log for %s.\n", args[0])
			return nil
		},
	}
}

func dateArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return time.Now().Format(worklog.DateLayout)
}

func summary(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
