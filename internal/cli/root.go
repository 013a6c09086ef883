package cli

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file, default ./apparelgrid.yaml
	DB      string // database path, overrides the config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the apparelctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "apparelctl",
		Short: "apparelctl - apparel inventory grid and forms",
		Long: `Browse and edit the apparel catalog from the terminal.

Listings go through the same sort, selection and pagination engine as the
web grid, and create/validate run the same form engine and rule bundles.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./apparelgrid.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "SQLite database path (default from config)")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// env is what a command needs after configuration is resolved.
type env struct {
	settings  Settings
	log       *logrus.Logger
	formatter *OutputFormatter
}

// setup resolves settings and builds the logger and output formatter.
// Logs go to the command's error stream so JSON output stays clean.
func (o *RootOptions) setup(cmd *cobra.Command) (*env, error) {
	overrides := map[string]any{}
	if o.DB != "" {
		overrides[cfgKeyDB] = o.DB
	}
	settings, err := LoadSettings(o.Config, overrides)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configuration", err)
	}

	log := newLogger(cmd.ErrOrStderr(), settings.LogLevel, o.Verbose)
	return &env{
		settings: settings,
		log:      log,
		formatter: &OutputFormatter{
			Format:    o.format(),
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   o.Verbose,
		},
	}, nil
}

func (o *RootOptions) format() string {
	if o.Format == "" {
		return "text"
	}
	return o.Format
}

func newLogger(w io.Writer, level logrus.Level, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

func (e *env) openStore() (*store.Store, error) {
	st, err := store.Open(e.settings.DB, store.WithLogger(e.log))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return st, nil
}

func (e *env) catalogFormatter() (*catalog.Formatter, error) {
	f, err := catalog.NewFormatter(e.settings.Locale, e.settings.Currency, time.UTC)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "configuration", err)
	}
	return f, nil
}
