package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/apparelgrid/internal/store"
)

// SeedResult is the JSON payload of the seed command.
type SeedResult struct {
	DB        string `json:"db"`
	Apparel   int    `json:"apparel"`
	Customers int    `json:"customers"`
	Orders    int    `json:"orders"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load a YAML fixture into the database",
		Long: `Load apparel, customers and orders from a YAML fixture.

The database is created if it does not exist. Records keep the ids given
in the fixture; the whole fixture is written in one transaction.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	e, err := opts.setup(cmd)
	if err != nil {
		return err
	}

	fixture, err := store.LoadFixture(path)
	if err != nil {
		if ferr := e.formatter.Error(ErrCodeNotFound, err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "seed", err)
	}

	st, err := e.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Seed(cmd.Context(), fixture); err != nil {
		if ferr := e.formatter.Error(ErrCodeGeneric, err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "seed", err)
	}

	result := SeedResult{
		DB:        e.settings.DB,
		Apparel:   len(fixture.Apparel),
		Customers: len(fixture.Customers),
		Orders:    len(fixture.Orders),
	}
	if e.formatter.Format == "json" {
		return e.formatter.Success(result)
	}
	fmt.Fprintf(e.formatter.Writer, "Seeded %s: %d apparel, %d customers, %d orders\n",
		result.DB, result.Apparel, result.Customers, result.Orders)
	return nil
}
