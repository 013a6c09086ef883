package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/form"
	"github.com/roach88/apparelgrid/internal/grid"
	"github.com/roach88/apparelgrid/internal/query"
	"github.com/roach88/apparelgrid/internal/store"
	"github.com/roach88/apparelgrid/internal/testutil"
)

// ErrRejected is the error returned by the "fail" submit effect.
var ErrRejected = errors.New("rejected by server")

// Harness is the scenario execution engine. It numbers steps and names
// submissions deterministically so traces can be compared byte for byte.
type Harness struct {
	log    logrus.FieldLogger
	steps  *testutil.StepCounter
	ids    *testutil.SequenceIDGenerator
	format *catalog.Formatter
	result *Result
}

// Option configures a scenario run.
type Option func(*Harness)

// WithLogger routes table, form and store logs to log. By default they
// are discarded.
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Harness) { h.log = log }
}

// Run executes a scenario and returns its trace and assertion results.
//
// Execution flow:
//  1. Load the fixture, if any
//  2. Build the table or form for the scenario entity
//  3. Record the initial state, then apply each step and record again
//  4. Check the assertions against the final recorded state
//
// A step that cannot be applied (an unknown field, a row that is not
// visible) aborts the run with an error. Failed assertions do not; they
// are reported in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	h := &Harness{
		log:    quiet,
		steps:  &testutil.StepCounter{},
		ids:    testutil.NewSequenceIDGenerator(""),
		format: catalog.DefaultFormatter(),
		result: NewResult(),
	}
	for _, opt := range opts {
		opt(h)
	}

	var fixture store.Fixture
	if scenario.Fixture != "" {
		f, err := store.LoadFixture(scenario.Fixture)
		if err != nil {
			return nil, err
		}
		fixture = f
	}

	var err error
	switch scenario.Kind {
	case KindTable:
		err = h.runTable(ctx, scenario, fixture)
	case KindForm:
		err = h.runForm(ctx, scenario, fixture)
	default:
		err = fmt.Errorf("unknown scenario kind %q", scenario.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	checkAssertions(h.result, scenario.Assertions)
	return h.result, nil
}

func (h *Harness) record(ev TraceEvent) {
	h.result.Trace = append(h.result.Trace, ev)
}

func (h *Harness) openStore(ctx context.Context, fixture store.Fixture) (*store.Store, error) {
	st, err := store.Open(":memory:", store.WithLogger(h.log))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	if err := st.Seed(ctx, fixture); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func (h *Harness) runTable(ctx context.Context, sc *Scenario, fixture store.Fixture) error {
	switch sc.Entity {
	case catalog.FormApparel:
		return runTable(ctx, h, sc, fixture, apparelTable)
	case catalog.FormCustomer:
		return runTable(ctx, h, sc, fixture, customerTable)
	case catalog.FormOrder:
		return runTable(ctx, h, sc, fixture, orderTable)
	}
	return fmt.Errorf("unknown table entity %q", sc.Entity)
}

func (h *Harness) runForm(ctx context.Context, sc *Scenario, fixture store.Fixture) error {
	switch sc.Entity {
	case catalog.FormApparel:
		return runForm(ctx, h, sc, fixture, apparelForm)
	case catalog.FormCustomer:
		return runForm(ctx, h, sc, fixture, customerForm)
	case catalog.FormOrder:
		return runForm(ctx, h, sc, fixture, orderForm)
	case catalog.FormShipment:
		return runForm(ctx, h, sc, fixture, shipmentForm)
	}
	return fmt.Errorf("unknown form entity %q", sc.Entity)
}

// lister is a store listing method.
type lister[T any] func(ctx context.Context, p query.Params) (query.Page[T], error)

// tableEntity binds a catalog row type to its columns, id, fixture rows and
// store listing.
type tableEntity[T any] struct {
	columns    func(*catalog.Formatter) []grid.Column[T]
	id         func(T) int64
	rows       func(store.Fixture) []T
	list       func(*store.Store) lister[T]
	selectable map[string]func(T) bool
}

var apparelTable = tableEntity[catalog.Apparel]{
	columns:    catalog.ApparelColumns,
	id:         catalog.ApparelID,
	rows:       func(f store.Fixture) []catalog.Apparel { return f.Apparel },
	list:       func(s *store.Store) lister[catalog.Apparel] { return s.Apparels },
	selectable: map[string]func(catalog.Apparel) bool{"in_stock": catalog.InStock},
}

var customerTable = tableEntity[catalog.Customer]{
	columns: catalog.CustomerColumns,
	id:      catalog.CustomerID,
	rows:    func(f store.Fixture) []catalog.Customer { return f.Customers },
	list:    func(s *store.Store) lister[catalog.Customer] { return s.Customers },
}

var orderTable = tableEntity[catalog.ApparelOrder]{
	columns: catalog.OrderColumns,
	id:      catalog.OrderID,
	rows:    func(f store.Fixture) []catalog.ApparelOrder { return f.Orders },
	list:    func(s *store.Store) lister[catalog.ApparelOrder] { return s.Orders },
	selectable: map[string]func(catalog.ApparelOrder) bool{
		"open": func(o catalog.ApparelOrder) bool {
			return o.Status != catalog.StatusDelivered && o.Status != catalog.StatusCancelled
		},
	},
}

// tableRun is the live state of a table scenario. Store callbacks cannot
// return errors, so the first one is kept in err.
type tableRun[T any] struct {
	h      *Harness
	entity tableEntity[T]
	table  *grid.Table[T]
	sel    *grid.Selectable[T, int64]

	list   lister[T]
	params query.Params
	page   *query.Page[T]
	err    error
}

func runTable[T any](ctx context.Context, h *Harness, sc *Scenario, fixture store.Fixture, e tableEntity[T]) error {
	r := &tableRun[T]{h: h, entity: e}
	opts := []grid.Option[T]{grid.WithLogger[T](h.log)}

	if sc.Source == SourceStore {
		st, err := h.openStore(ctx, fixture)
		if err != nil {
			return err
		}
		defer st.Close()

		initial := *sc.Sort
		r.list = e.list(st)
		r.params = query.Params{
			Pagination: query.Pagination{Size: sc.PageSize}.Normalize(),
			Sort:       &initial,
		}
		opts = append(opts,
			grid.WithExternalSort[T](initial),
			grid.WithOnSort[T](func(s grid.Sort) {
				r.params.Sort = &s
				r.params.Page = 0
				r.load(ctx)
			}),
		)
	}

	r.table = grid.New(e.columns(h.format), opts...)

	var selOpts []grid.SelectOption[T, int64]
	if sc.Selectable != "" {
		filter, ok := e.selectable[sc.Selectable]
		if !ok {
			return fmt.Errorf("entity %s has no selectable filter %q", sc.Entity, sc.Selectable)
		}
		selOpts = append(selOpts, grid.WithSelectableRow[T, int64](filter))
	}
	r.sel = grid.NewSelectable(r.table, e.id, selOpts...)

	if r.list != nil {
		r.load(ctx)
	} else {
		r.table.SetRows(e.rows(fixture))
	}
	if r.err != nil {
		return r.err
	}
	h.record(r.event("load", ""))

	for i, step := range sc.Steps {
		arg, err := r.apply(ctx, step)
		if err == nil {
			err = r.err
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
		h.record(r.event(step.Action, arg))
	}
	return nil
}

// load fetches the page described by params and installs its rows and sort.
func (r *tableRun[T]) load(ctx context.Context) {
	r.table.SetLoading(true)
	defer r.table.SetLoading(false)

	page, err := r.list(ctx, r.params)
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return
	}
	r.table.SetExternalSort(r.params.Sort)
	r.table.SetRows(page.Content)
	r.page = &page
}

func (r *tableRun[T]) apply(ctx context.Context, step Step) (string, error) {
	switch step.Action {
	case ActionClickHeader:
		r.table.ClickHeader(step.Key)
		return step.Key, nil
	case ActionSelectAll:
		r.sel.SelectAll(*step.Checked)
		return strconv.FormatBool(*step.Checked), nil
	case ActionToggleRow:
		for _, row := range r.table.Rows() {
			if r.entity.id(row) == step.ID {
				r.sel.ToggleRow(row)
				return strconv.FormatInt(step.ID, 10), nil
			}
		}
		return "", fmt.Errorf("row %d is not visible", step.ID)
	case ActionClearSelection:
		r.sel.Clear()
		return "", nil
	case ActionGoToPage:
		if r.page == nil {
			return "", fmt.Errorf("no page loaded")
		}
		pager := r.page.Pager()
		current := *r.page
		pager.OnPageChange = func(n int) {
			r.params.Pagination = current.Pagination(n)
			r.load(ctx)
		}
		pager.GoTo(step.Page)
		return strconv.Itoa(step.Page), nil
	}
	return "", fmt.Errorf("unsupported table action %q", step.Action)
}

func (r *tableRun[T]) event(step, arg string) TraceEvent {
	ev := TraceEvent{Seq: r.h.steps.Next(), Step: step, Arg: arg}
	if s, ok := r.table.ActiveSort(); ok {
		ev.Sort = &s
	}
	for _, row := range r.table.Rows() {
		ev.Order = append(ev.Order, r.entity.id(row))
	}
	ev.Selected = r.sel.SelectedIDs()
	ev.AllSelected = r.sel.IsAllSelected()
	ev.Indeterminate = r.sel.IsIndeterminate()
	if r.page != nil {
		ev.Summary = r.page.Pager().Summary()
	}
	return ev
}

// formEntity binds a form values type to its rule bundle and its store
// write.
type formEntity[T any] struct {
	name   string
	create func(ctx context.Context, st *store.Store, values T) (int64, error)
}

var apparelForm = formEntity[catalog.ApparelForm]{
	name: catalog.FormApparel,
	create: func(ctx context.Context, st *store.Store, v catalog.ApparelForm) (int64, error) {
		a, err := st.CreateApparel(ctx, v.Apparel())
		return a.ID, err
	},
}

var customerForm = formEntity[catalog.CustomerForm]{
	name: catalog.FormCustomer,
	create: func(ctx context.Context, st *store.Store, v catalog.CustomerForm) (int64, error) {
		c, err := st.CreateCustomer(ctx, v.Customer())
		return c.ID, err
	},
}

var orderForm = formEntity[catalog.OrderForm]{
	name: catalog.FormOrder,
	create: func(ctx context.Context, st *store.Store, v catalog.OrderForm) (int64, error) {
		o, err := st.CreateOrder(ctx, v.Order())
		return o.ID, err
	},
}

var shipmentForm = formEntity[catalog.ShipmentForm]{name: catalog.FormShipment}

func runForm[T any](ctx context.Context, h *Harness, sc *Scenario, fixture store.Fixture, e formEntity[T]) error {
	ruleSet, err := catalog.Rules(e.name)
	if err != nil {
		return err
	}
	initial, err := initialValues[T](sc.Initial, h.log)
	if err != nil {
		return err
	}

	var created int64
	opts := form.Options[T]{
		InitialValues: initial,
		Rules:         ruleSet,
		Logger:        h.log,
		IDs:           h.ids,
	}
	switch sc.Effect {
	case "", EffectSucceed:
		opts.Submit = func(context.Context, T) error { return nil }
	case EffectFail:
		opts.Submit = func(context.Context, T) error { return ErrRejected }
	case EffectStore:
		if e.create == nil {
			return fmt.Errorf("effect %q is not supported for %s", EffectStore, e.name)
		}
		st, err := h.openStore(ctx, fixture)
		if err != nil {
			return err
		}
		defer st.Close()
		opts.Submit = func(ctx context.Context, v T) error {
			id, err := e.create(ctx, st, v)
			if err != nil {
				return err
			}
			created = id
			return nil
		}
	default:
		return fmt.Errorf("unknown effect %q", sc.Effect)
	}

	f, err := form.New(opts)
	if err != nil {
		return err
	}
	defer f.Close()

	h.record(formEvent(h, f, "load", ""))
	for i, step := range sc.Steps {
		var (
			arg string
			out *form.Outcome
		)
		switch step.Action {
		case ActionSetValue:
			arg = step.Field + "=" + step.Value
			err = f.SetText(step.Field, step.Value)
		case ActionValidateField:
			arg = step.Field
			_, err = f.ValidateField(step.Field)
		case ActionValidate:
			f.ValidateAll()
		case ActionSubmit:
			created = 0
			o := f.HandleSubmit(ctx)
			out = &o
		case ActionReset:
			f.Reset()
		default:
			err = fmt.Errorf("unsupported form action %q", step.Action)
		}
		if err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}

		ev := formEvent(h, f, step.Action, arg)
		if out != nil {
			ev.Outcome = string(out.Status)
			ev.SubmissionID = out.SubmissionID
			if out.Status == form.OutcomeSubmitted {
				ev.Created = created
			}
		}
		h.record(ev)
	}
	return nil
}

// initialValues parses raw initial input through a rule-less form so the
// text follows the same conversions as set_value steps.
func initialValues[T any](raw map[string]string, log logrus.FieldLogger) (T, error) {
	f, err := form.New(form.Options[T]{Logger: log})
	if err != nil {
		var zero T
		return zero, err
	}
	for _, field := range slices.Sorted(maps.Keys(raw)) {
		if err := f.SetText(field, raw[field]); err != nil {
			var zero T
			return zero, fmt.Errorf("initial value: %w", err)
		}
	}
	return f.Values(), nil
}

func formEvent[T any](h *Harness, f *form.Form[T], step, arg string) TraceEvent {
	valid := f.IsValid()
	return TraceEvent{
		Seq:    h.steps.Next(),
		Step:   step,
		Arg:    arg,
		Errors: f.Errors(),
		Valid:  &valid,
		Dirty:  f.IsDirty(),
	}
}
