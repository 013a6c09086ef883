package grid

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultEmptyMessage is shown when a loaded table has no rows.
const DefaultEmptyMessage = "No data available"

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is the active sort descriptor. At most one is active per table.
type Sort struct {
	Key       string    `json:"key" yaml:"key"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// Indicator is the sort marker shown on a column header.
type Indicator string

const (
	// IndicatorNone is used for columns that cannot be sorted.
	IndicatorNone     Indicator = "none"
	IndicatorAsc      Indicator = "asc"
	IndicatorDesc     Indicator = "desc"
	IndicatorUnsorted Indicator = "unsorted"
)

// Option configures a Table.
type Option[T any] func(*Table[T])

// WithExternalSort hands sorting to the caller. The table keeps rows in
// input order and only reports header clicks through OnSort.
func WithExternalSort[T any](s Sort) Option[T] {
	return func(t *Table[T]) { t.SetExternalSort(&s) }
}

// WithOnSort registers the header click callback.
func WithOnSort[T any](fn func(Sort)) Option[T] {
	return func(t *Table[T]) { t.onSort = fn }
}

// WithEmptyMessage overrides DefaultEmptyMessage.
func WithEmptyMessage[T any](msg string) Option[T] {
	return func(t *Table[T]) { t.emptyMessage = msg }
}

// WithLocale makes the internal sort collate strings for the given
// language instead of comparing code units.
func WithLocale[T any](tag language.Tag) Option[T] {
	return func(t *Table[T]) { t.collator = collate.New(tag) }
}

// WithLogger sets the logger used for sort changes.
func WithLogger[T any](log logrus.FieldLogger) Option[T] {
	return func(t *Table[T]) { t.log = log }
}

// Table is the tabular data engine: column definitions, sort resolution,
// cell rendering and loading/empty states over a caller-owned row set.
//
// Table is not safe for concurrent use; each rendered table owns one.
type Table[T any] struct {
	columns []Column[T]
	index   map[string]int
	rows    []T

	external *Sort
	internal *Sort

	loading      bool
	emptyMessage string
	onSort       func(Sort)
	collator     *collate.Collator
	log          logrus.FieldLogger
}

// New creates a table. Column keys must be unique; a duplicate key panics.
func New[T any](columns []Column[T], opts ...Option[T]) *Table[T] {
	t := &Table[T]{
		columns:      slices.Clone(columns),
		index:        make(map[string]int, len(columns)),
		emptyMessage: DefaultEmptyMessage,
		log:          logrus.StandardLogger(),
	}
	for i, c := range columns {
		if _, dup := t.index[c.Key]; dup {
			panic(fmt.Sprintf("grid: duplicate column key %q", c.Key))
		}
		t.index[c.Key] = i
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Columns returns the column definitions in display order.
func (t *Table[T]) Columns() []Column[T] {
	return slices.Clone(t.columns)
}

// Column returns the column with the given key.
func (t *Table[T]) Column(key string) (Column[T], bool) {
	i, ok := t.index[key]
	if !ok {
		return Column[T]{}, false
	}
	return t.columns[i], true
}

// SetRows replaces the row set. The slice is not copied.
func (t *Table[T]) SetRows(rows []T) {
	t.rows = rows
}

// SetLoading toggles the loading state.
func (t *Table[T]) SetLoading(loading bool) {
	t.loading = loading
}

// Loading reports whether the table is loading.
func (t *Table[T]) Loading() bool {
	return t.loading
}

// SetExternalSort installs (or with nil, removes) a caller-owned sort
// descriptor. While one is installed the internal sort is ignored.
func (t *Table[T]) SetExternalSort(s *Sort) {
	if s == nil {
		t.external = nil
		return
	}
	cp := *s
	t.external = &cp
}

// External reports whether sorting is owned by the caller.
func (t *Table[T]) External() bool {
	return t.external != nil
}

// ActiveSort returns the descriptor governing the display order: the
// external one when installed, otherwise the internal one.
func (t *Table[T]) ActiveSort() (Sort, bool) {
	if t.external != nil {
		return *t.external, true
	}
	if t.internal != nil {
		return *t.internal, true
	}
	return Sort{}, false
}

// ClickHeader applies a header click: the active key flips between asc and
// desc, any other sortable key becomes active in asc. Columns that cannot
// be sorted (and unknown keys) are ignored.
//
// With an external sort the new descriptor is only reported through OnSort;
// the caller is expected to fetch reordered rows and install the descriptor.
// Without one the internal descriptor is updated and OnSort is raised too.
func (t *Table[T]) ClickHeader(key string) (Sort, bool) {
	col, ok := t.Column(key)
	if !ok || !col.Sortable() {
		return Sort{}, false
	}

	next := Sort{Key: key, Direction: Asc}
	if cur, ok := t.ActiveSort(); ok && cur.Key == key && cur.Direction == Asc {
		next.Direction = Desc
	}

	t.log.WithFields(logrus.Fields{
		"key":       next.Key,
		"direction": next.Direction,
		"external":  t.external != nil,
	}).Debug("sort changed")

	if t.external == nil {
		t.internal = &next
	}
	if t.onSort != nil {
		t.onSort(next)
	}
	return next, true
}

// Indicator returns the header marker for key.
func (t *Table[T]) Indicator(key string) Indicator {
	col, ok := t.Column(key)
	if !ok || !col.Sortable() {
		return IndicatorNone
	}
	cur, ok := t.ActiveSort()
	if !ok || cur.Key != key {
		return IndicatorUnsorted
	}
	if cur.Direction == Desc {
		return IndicatorDesc
	}
	return IndicatorAsc
}

// Rows returns the rows in display order. An external sort keeps input
// order. An internal sort is stable, places nil values last in both
// directions, and keeps input order among equal values.
func (t *Table[T]) Rows() []T {
	out := slices.Clone(t.rows)
	if t.external != nil || t.internal == nil {
		return out
	}

	col, ok := t.Column(t.internal.Key)
	if !ok {
		return out
	}
	desc := t.internal.Direction == Desc

	slices.SortStableFunc(out, func(a, b T) int {
		va, vb := deref(col.Resolve(a)), deref(col.Resolve(b))
		switch {
		case va == nil && vb == nil:
			return 0
		case va == nil:
			return 1
		case vb == nil:
			return -1
		}
		c := compareValues(va, vb, t.collator)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Cell returns the display text of column for row at index.
func (t *Table[T]) Cell(col Column[T], row T, index int) string {
	value := col.Resolve(row)
	if col.Render != nil {
		return col.Render(value, row, index)
	}
	return Display(value)
}

// HeaderView is one rendered column header.
type HeaderView struct {
	Key       string    `json:"key"`
	Header    string    `json:"header"`
	Sortable  bool      `json:"sortable"`
	Indicator Indicator `json:"indicator"`
	Align     Align     `json:"align"`
	Width     string    `json:"width,omitempty"`
}

// View is a render snapshot of a table.
type View struct {
	Headers []HeaderView `json:"headers"`

	// Rows holds the cell text in display order. It is nil while loading.
	Rows [][]string `json:"rows"`

	Loading      bool   `json:"loading"`
	Empty        bool   `json:"empty"`
	EmptyMessage string `json:"emptyMessage,omitempty"`
}

// View renders the current state.
func (t *Table[T]) View() View {
	v := View{Headers: t.headers(), Loading: t.loading}
	if t.loading {
		return v
	}

	rows := t.Rows()
	if len(rows) == 0 {
		v.Empty = true
		v.EmptyMessage = t.emptyMessage
		v.Rows = [][]string{}
		return v
	}

	v.Rows = make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(t.columns))
		for j, col := range t.columns {
			cells[j] = t.Cell(col, row, i)
		}
		v.Rows[i] = cells
	}
	return v
}

func (t *Table[T]) headers() []HeaderView {
	out := make([]HeaderView, len(t.columns))
	for i, c := range t.columns {
		out[i] = HeaderView{
			Key:       c.Key,
			Header:    c.Header,
			Sortable:  c.Sortable(),
			Indicator: t.Indicator(c.Key),
			Align:     c.align(),
			Width:     c.Width,
		}
	}
	return out
}
