package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/form"
	"github.com/roach88/apparelgrid/internal/store"
)

// FormResult is the JSON payload of the validate and create commands.
type FormResult struct {
	Form         string              `json:"form"`
	Valid        bool                `json:"valid"`
	Errors       map[string][]string `json:"errors,omitempty"`
	Outcome      string              `json:"outcome,omitempty"`
	SubmissionID string              `json:"submission_id,omitempty"`
	ID           int64               `json:"id,omitempty"`
}

// FormOptions holds flags for the validate and create commands.
type FormOptions struct {
	*RootOptions
	Set   []string // field=value
	Order int64    // parent order of a shipment (create only)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FormOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <apparel|customer|order|shipment>",
		Short: "Check form input against its rule bundle",
		Long: `Fill a form with --set values and run every rule of its bundle.

Values are raw input text, parsed the way the form field expects: numbers
for price and quantities, text for everything else. Nothing is written.

Exit codes:
  0 - Values are valid
  1 - One or more fields failed validation
  2 - Command error (unknown form or field, unparsable value)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd, opts, args[0], false)
		},
	}
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "field value as field=value (repeatable)")
	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FormOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <apparel|customer|order|shipment>",
		Short: "Validate form input and write the record",
		Long: `Fill a form with --set values and submit it.

Submission validates every field first; only valid values reach the
database. An order form creates a NEW order with one line. A shipment
is added to the order given by --order.

Examples:
  apparelctl create apparel --set apparelName="Linen Shirt" --set apparelStyle=Loose --set price=45
  apparelctl create order --set customerId=1 --set paymentAmount=90 --set apparelId=1 --set orderQuantity=2
  apparelctl create shipment --order 2 --set shipmentDate=2024-03-04T16:00 --set carrier=UPS --set trackingNumber=1Z999`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd, opts, args[0], true)
		},
	}
	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "field value as field=value (repeatable)")
	cmd.Flags().Int64Var(&opts.Order, "order", 0, "order id (shipment only)")
	return cmd
}

// parseSets splits field=value pairs. A field given twice keeps the last
// value.
func parseSets(sets []string) (map[string]string, error) {
	out := make(map[string]string, len(sets))
	for _, s := range sets {
		field, value, ok := strings.Cut(s, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("--set %q: want field=value", s)
		}
		out[field] = value
	}
	return out, nil
}

func runForm(cmd *cobra.Command, opts *FormOptions, name string, submit bool) error {
	e, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	values, err := parseSets(opts.Set)
	if err != nil {
		return badRequest(e.formatter, err.Error())
	}

	var st *store.Store
	if submit {
		if !slices.Contains(Forms, name) {
			return badRequest(e.formatter, fmt.Sprintf("unknown form %q: must be one of %v", name, Forms))
		}
		if st, err = e.openStore(); err != nil {
			return err
		}
		defer st.Close()
	}

	var result FormResult
	switch name {
	case catalog.FormApparel:
		result, err = fillForm(cmd.Context(), e.log, name, values, st, createApparel)
	case catalog.FormCustomer:
		result, err = fillForm(cmd.Context(), e.log, name, values, st, createCustomer)
	case catalog.FormOrder:
		result, err = fillForm(cmd.Context(), e.log, name, values, st, createOrder)
	case catalog.FormShipment:
		result, err = fillForm(cmd.Context(), e.log, name, values, st, createShipment(opts.Order))
	default:
		return badRequest(e.formatter, fmt.Sprintf("unknown form %q: must be one of %v", name, Forms))
	}
	if err != nil {
		return badRequest(e.formatter, err.Error())
	}

	return outputForm(e.formatter, result)
}

// fillForm builds the catalog form, applies the input text and either
// validates (st nil) or submits with a store write as the effect.
func fillForm[T any](ctx context.Context, log logrus.FieldLogger, name string, values map[string]string, st *store.Store, create creator[T]) (FormResult, error) {
	ruleSet, err := catalog.Rules(name)
	if err != nil {
		return FormResult{}, err
	}

	var id int64
	opts := form.Options[T]{Rules: ruleSet, Logger: log}
	if st != nil {
		opts.Submit = func(ctx context.Context, v T) error {
			created, err := create(ctx, st, v)
			if err != nil {
				return err
			}
			id = created
			form.Logger(ctx, log).WithField("form", name).WithField("id", created).Info("record created")
			return nil
		}
	}

	f, err := form.New(opts)
	if err != nil {
		return FormResult{}, err
	}
	defer f.Close()

	for _, field := range slices.Sorted(maps.Keys(values)) {
		if err := f.SetText(field, values[field]); err != nil {
			return FormResult{}, err
		}
	}

	result := FormResult{Form: name}
	if st == nil {
		result.Valid = f.ValidateAll()
		result.Errors = f.Errors()
		return result, nil
	}

	out := f.HandleSubmit(ctx)
	result.Valid = f.IsValid()
	result.Errors = f.Errors()
	result.Outcome = string(out.Status)
	result.SubmissionID = out.SubmissionID
	result.ID = id
	if out.Err != nil {
		result.Errors = map[string][]string{"": {out.Err.Error()}}
	}
	return result, nil
}

func outputForm(f *OutputFormatter, result FormResult) error {
	failed := !result.Valid || result.Outcome == string(form.OutcomeFailed)

	if f.Format == "json" {
		if failed {
			code, msg := ErrCodeInvalid, "validation failed"
			if result.Outcome == string(form.OutcomeFailed) {
				code, msg = ErrCodeRejected, "submission failed"
			}
			if err := f.Error(code, msg, result); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return f.Success(result)
	}

	w := f.Writer
	for _, field := range slices.Sorted(maps.Keys(result.Errors)) {
		label := field
		if label == "" {
			label = "submit"
		}
		for _, msg := range result.Errors[field] {
			fmt.Fprintf(w, "✗ %s: %s\n", label, msg)
		}
	}

	switch {
	case result.Outcome == string(form.OutcomeFailed):
		return NewExitError(ExitFailure, "submission failed")
	case !result.Valid:
		return NewExitError(ExitFailure, "validation failed")
	case result.Outcome == string(form.OutcomeSubmitted):
		fmt.Fprintf(w, "✓ %s %d created\n", result.Form, result.ID)
		f.VerboseLog("submission %s", result.SubmissionID)
	default:
		fmt.Fprintf(w, "✓ %s is valid\n", result.Form)
	}
	return nil
}
