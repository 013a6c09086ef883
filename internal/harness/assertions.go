package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		if event.Arg != "" {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Step, event.Arg)
		} else {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Seq, event.Step)
		}
	}

	return buf.String()
}

// checkAssertions evaluates every assertion against the result trace and
// records each failure.
func checkAssertions(result *Result, assertions []Assertion) {
	for _, a := range assertions {
		if err := evaluate(result.Trace, a); err != nil {
			result.AddError(err.Error())
		}
	}
}

func evaluate(trace []TraceEvent, a Assertion) error {
	if len(trace) == 0 {
		return &AssertionError{Type: a.Type, Expected: "a recorded state", Actual: "empty trace"}
	}
	final := trace[len(trace)-1]

	fail := func(expected, actual any) error {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprint(expected),
			Actual:   fmt.Sprint(actual),
			Trace:    trace,
		}
	}

	switch a.Type {
	case AssertOrder:
		if !slices.Equal(final.Order, a.IDs) {
			return fail(a.IDs, final.Order)
		}
	case AssertSelection:
		// Selection is a set; the trace keeps selection order.
		want, got := slices.Sorted(slices.Values(a.IDs)), slices.Sorted(slices.Values(final.Selected))
		if !slices.Equal(got, want) {
			return fail(want, got)
		}
	case AssertSort:
		want := fmt.Sprintf("%s %s", a.Key, a.Direction)
		if final.Sort == nil {
			return fail(want, "unsorted")
		}
		if got := fmt.Sprintf("%s %s", final.Sort.Key, final.Sort.Direction); got != want {
			return fail(want, got)
		}
	case AssertSummary:
		if final.Summary != a.Text {
			return fail(fmt.Sprintf("%q", a.Text), fmt.Sprintf("%q", final.Summary))
		}
	case AssertErrors:
		got := final.Errors[a.Field]
		if !slices.Equal(got, a.Messages) {
			return fail(fmt.Sprintf("%s errors %q", a.Field, a.Messages), fmt.Sprintf("%q", got))
		}
	case AssertValid:
		if final.Valid == nil || *final.Valid != *a.Value {
			got := "unknown"
			if final.Valid != nil {
				got = fmt.Sprint(*final.Valid)
			}
			return fail(*a.Value, got)
		}
	case AssertSubmitted:
		n := 0
		for _, ev := range trace {
			if ev.SubmissionID != "" {
				n++
			}
		}
		if n != *a.Count {
			return fail(fmt.Sprintf("%d submit effect calls", *a.Count), n)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
