package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/grid"
)

// Scenario drives one table or form through a scripted interaction and
// asserts on the resulting trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Kind is "table" or "form".
	Kind string `yaml:"kind"`

	// Entity selects the catalog table or form: apparel, customer, order,
	// or (forms only) shipment.
	Entity string `yaml:"entity"`

	// Fixture is a store fixture. Tables take their rows from it; a form
	// with the store effect seeds its database from it. Relative paths are
	// resolved against the scenario file.
	Fixture string `yaml:"fixture,omitempty"`

	// Source is "rows" (default) to sort in memory or "store" to let the
	// store sort and paginate. Tables only.
	Source string `yaml:"source,omitempty"`

	// Sort is the initial server-side sort. Required with source "store".
	Sort *grid.Sort `yaml:"sort,omitempty"`

	// PageSize is the store page size. Defaults to 20.
	PageSize int `yaml:"page_size,omitempty"`

	// Selectable names a row filter of the entity, such as "in_stock".
	Selectable string `yaml:"selectable,omitempty"`

	// Initial holds raw input text for the form's initial values.
	Initial map[string]string `yaml:"initial,omitempty"`

	// Effect is the form submit effect: succeed (default), fail or store.
	Effect string `yaml:"effect,omitempty"`

	// Steps are applied in order after the initial load.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state recorded in the trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one user interaction. Which arguments apply depends on Action.
type Step struct {
	Action  string `yaml:"action"`
	Key     string `yaml:"key,omitempty"`
	Checked *bool  `yaml:"checked,omitempty"`
	ID      int64  `yaml:"id,omitempty"`
	Page    int    `yaml:"page,omitempty"`
	Field   string `yaml:"field,omitempty"`
	Value   string `yaml:"value,omitempty"`
}

// Assertion checks the final state of the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// IDs are the expected row ids (order, selection).
	IDs []int64 `yaml:"ids,omitempty"`

	// Key and Direction are the expected sort (sort).
	Key       string         `yaml:"key,omitempty"`
	Direction grid.Direction `yaml:"direction,omitempty"`

	// Field and Messages are the expected errors of one field (errors).
	// An empty list asserts the field has no errors.
	Field    string   `yaml:"field,omitempty"`
	Messages []string `yaml:"messages,omitempty"`

	// Value is the expected form validity (valid).
	Value *bool `yaml:"value,omitempty"`

	// Count is the expected number of submit effect calls (submitted).
	Count *int `yaml:"count,omitempty"`

	// Text is the expected pagination summary (summary).
	Text string `yaml:"text,omitempty"`
}

// Scenario kinds.
const (
	KindTable = "table"
	KindForm  = "form"
)

// Table sources.
const (
	SourceRows  = "rows"
	SourceStore = "store"
)

// Submit effects.
const (
	EffectSucceed = "succeed"
	EffectFail    = "fail"
	EffectStore   = "store"
)

// Step actions.
const (
	ActionClickHeader    = "click_header"
	ActionSelectAll      = "select_all"
	ActionToggleRow      = "toggle_row"
	ActionClearSelection = "clear_selection"
	ActionGoToPage       = "go_to_page"

	ActionSetValue      = "set_value"
	ActionValidateField = "validate_field"
	ActionValidate      = "validate"
	ActionSubmit        = "submit"
	ActionReset         = "reset"
)

// Assertion type constants.
const (
	AssertOrder     = "order"
	AssertSelection = "selection"
	AssertSort      = "sort"
	AssertSummary   = "summary"
	AssertErrors    = "errors"
	AssertValid     = "valid"
	AssertSubmitted = "submitted"
)

var (
	tableEntities = []string{catalog.FormApparel, catalog.FormCustomer, catalog.FormOrder}
	formEntities  = []string{catalog.FormApparel, catalog.FormCustomer, catalog.FormOrder, catalog.FormShipment}

	tableActions = []string{ActionClickHeader, ActionSelectAll, ActionToggleRow, ActionClearSelection, ActionGoToPage}
	formActions  = []string{ActionSetValue, ActionValidateField, ActionValidate, ActionSubmit, ActionReset}

	tableAssertions = []string{AssertOrder, AssertSelection, AssertSort, AssertSummary}
	formAssertions  = []string{AssertErrors, AssertValid, AssertSubmitted}
)

// LoadScenario reads and parses a scenario YAML file. Unknown keys are
// rejected, and a relative fixture path is resolved against the directory
// of the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Fixture != "" && !filepath.IsAbs(scenario.Fixture) {
		scenario.Fixture = filepath.Join(filepath.Dir(path), scenario.Fixture)
	}
	return scenario, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// step and assertion fits the scenario kind.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.PageSize < 0 {
		return fmt.Errorf("page_size cannot be negative")
	}

	var actions, assertions []string
	switch s.Kind {
	case KindTable:
		if !slices.Contains(tableEntities, s.Entity) {
			return fmt.Errorf("unknown table entity %q", s.Entity)
		}
		if s.Fixture == "" {
			return fmt.Errorf("table scenarios require a fixture")
		}
		switch s.Source {
		case "", SourceRows:
			if s.Sort != nil {
				return fmt.Errorf("sort requires source %q", SourceStore)
			}
		case SourceStore:
			if s.Sort == nil || s.Sort.Key == "" {
				return fmt.Errorf("source %q requires an initial sort", SourceStore)
			}
		default:
			return fmt.Errorf("unknown source %q", s.Source)
		}
		if len(s.Initial) > 0 || s.Effect != "" {
			return fmt.Errorf("initial and effect apply to forms only")
		}
		actions, assertions = tableActions, tableAssertions
	case KindForm:
		if !slices.Contains(formEntities, s.Entity) {
			return fmt.Errorf("unknown form entity %q", s.Entity)
		}
		switch s.Effect {
		case "", EffectSucceed, EffectFail:
		case EffectStore:
			if s.Entity == catalog.FormShipment {
				return fmt.Errorf("effect %q is not supported for %s", EffectStore, s.Entity)
			}
		default:
			return fmt.Errorf("unknown effect %q", s.Effect)
		}
		if s.Source != "" || s.Sort != nil || s.Selectable != "" {
			return fmt.Errorf("source, sort and selectable apply to tables only")
		}
		actions, assertions = formActions, formAssertions
	default:
		return fmt.Errorf("kind must be %q or %q, got %q", KindTable, KindForm, s.Kind)
	}

	for i, step := range s.Steps {
		if !slices.Contains(actions, step.Action) {
			return fmt.Errorf("step %d: action %q is not valid for a %s scenario", i, step.Action, s.Kind)
		}
		if err := validateStep(s, step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if !slices.Contains(assertions, a.Type) {
			return fmt.Errorf("assertion %d: type %q is not valid for a %s scenario", i, a.Type, s.Kind)
		}
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d: %w", i, err)
		}
	}

	return nil
}

func validateStep(s *Scenario, step Step) error {
	switch step.Action {
	case ActionClickHeader:
		if step.Key == "" {
			return fmt.Errorf("click_header requires 'key' field")
		}
	case ActionSelectAll:
		if step.Checked == nil {
			return fmt.Errorf("select_all requires 'checked' field")
		}
	case ActionToggleRow:
		if step.ID <= 0 {
			return fmt.Errorf("toggle_row requires a positive 'id' field")
		}
	case ActionGoToPage:
		if s.Source != SourceStore {
			return fmt.Errorf("go_to_page requires source %q", SourceStore)
		}
		if step.Page <= 0 {
			return fmt.Errorf("go_to_page requires a positive 'page' field")
		}
	case ActionSetValue, ActionValidateField:
		if step.Field == "" {
			return fmt.Errorf("%s requires 'field' field", step.Action)
		}
	}
	return nil
}

// validateAssertion checks that an assertion has required fields for its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertSort:
		if a.Key == "" {
			return fmt.Errorf("sort assertion requires 'key' field")
		}
		if a.Direction != grid.Asc && a.Direction != grid.Desc {
			return fmt.Errorf("sort assertion requires direction asc or desc")
		}
	case AssertSummary:
		if a.Text == "" {
			return fmt.Errorf("summary assertion requires 'text' field")
		}
	case AssertErrors:
		if a.Field == "" {
			return fmt.Errorf("errors assertion requires 'field' field")
		}
	case AssertValid:
		if a.Value == nil {
			return fmt.Errorf("valid assertion requires 'value' field")
		}
	case AssertSubmitted:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("submitted assertion requires a non-negative 'count' field")
		}
	}
	return nil
}
