package harness

import "github.com/roach88/apparelgrid/internal/grid"

// TraceEvent records the observable state after one step. Table steps fill
// the sort, order and selection fields; form steps fill errors, validity
// and the submit outcome.
type TraceEvent struct {
	Seq  int    `json:"seq"`
	Step string `json:"step"`
	Arg  string `json:"arg,omitempty"`

	Sort          *grid.Sort `json:"sort,omitempty"`
	Order         []int64    `json:"order,omitempty"`
	Selected      []int64    `json:"selected,omitempty"`
	AllSelected   bool       `json:"all_selected,omitempty"`
	Indeterminate bool       `json:"indeterminate,omitempty"`
	Summary       string     `json:"summary,omitempty"`

	Errors       map[string][]string `json:"errors,omitempty"`
	Valid        *bool               `json:"valid,omitempty"`
	Dirty        bool                `json:"dirty,omitempty"`
	Outcome      string              `json:"outcome,omitempty"`
	SubmissionID string              `json:"submission_id,omitempty"`
	Created      int64               `json:"created,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion holds.
	Pass bool `json:"pass"`

	// Trace holds the initial load event followed by one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the last trace event, the state the assertions check.
func (r *Result) Final() (TraceEvent, bool) {
	if len(r.Trace) == 0 {
		return TraceEvent{}, false
	}
	return r.Trace[len(r.Trace)-1], true
}
