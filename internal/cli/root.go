// Package cli implements the teacherdesk command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"teacherdesk/internal/app"
	"teacherdesk/internal/config"
	"teacherdesk/internal/logging"
)

type options struct {
	configFile string
	apiURL     string
	asJSON     bool
	verbose    bool

	cfg config.App
	app *app.App
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "teacherdesk",
		Short: "Manage students, to-dos and work logs from the terminal",
		Long: `teacherdesk talks to the classroom backend and keeps a local view of
students, to-dos and daily work logs.

Configuration comes from environment variables (API_BASE_URL, LOG_LEVEL, ...)
and an optional YAML file passed with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if o.app != nil {
				return o.app.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&o.configFile, "config", "", "Path to a config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&o.apiURL, "api", "", "Backend base URL, overrides API_BASE_URL")
	root.PersistentFlags().BoolVar(&o.asJSON, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Log requests to stderr")

	root.AddCommand(
		newStudentsCmd(o),
		newToDosCmd(o),
		newWorkLogsCmd(o),
		newTokenCmd(o),
	)
	return root
}

// Execute runs the CLI and prints any error to stderr.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}
	if o.apiURL != "" {
		cfg.APIBaseURL = o.apiURL
	}
	o.cfg = cfg

	var logger *slog.Logger
	if o.verbose {
		logger = logging.SetupWriter(cmd.ErrOrStderr(), "debug", false)
	} else {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o.app = app.Build(cfg, logger, nil)
	return nil
}

func (o *options) printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
