package grid

// SelectOption configures a Selectable.
type SelectOption[T any, K comparable] func(*Selectable[T, K])

// WithSelectableRow restricts which rows can be selected. The filter is
// evaluated whenever a row would be added to the selection.
func WithSelectableRow[T any, K comparable](fn func(row T) bool) SelectOption[T, K] {
	return func(s *Selectable[T, K]) { s.selectable = fn }
}

// WithOnSelectionChange registers the selection callback. It receives the
// selected rows in selection order after every change.
func WithOnSelectionChange[T any, K comparable](fn func(rows []T)) SelectOption[T, K] {
	return func(s *Selectable[T, K]) { s.onChange = fn }
}

// WithSelection seeds the selection. Rows failing the selectable filter
// are skipped.
func WithSelection[T any, K comparable](rows ...T) SelectOption[T, K] {
	return func(s *Selectable[T, K]) { s.initial = append(s.initial, rows...) }
}

// Selectable adds a selection set to a Table. Rows are identified by
// rowID; the set survives sorting, paging and row replacement. The
// visible rows are whatever the table currently holds.
type Selectable[T any, K comparable] struct {
	*Table[T]

	rowID      func(T) K
	selectable func(T) bool
	onChange   func([]T)

	selected map[K]T
	order    []K
	initial  []T
}

// NewSelectable wraps table with selection. rowID is required; a nil rowID
// panics. Duplicate ids within one row set are not supported.
func NewSelectable[T any, K comparable](table *Table[T], rowID func(T) K, opts ...SelectOption[T, K]) *Selectable[T, K] {
	if table == nil {
		panic("grid: NewSelectable requires a table")
	}
	if rowID == nil {
		panic("grid: NewSelectable requires a rowID function")
	}
	s := &Selectable[T, K]{
		Table:    table,
		rowID:    rowID,
		selected: map[K]T{},
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, r := range s.initial {
		if s.IsSelectable(r) {
			s.add(r)
		}
	}
	s.initial = nil
	return s
}

// IsSelectable reports whether row passes the selectable filter.
func (s *Selectable[T, K]) IsSelectable(row T) bool {
	return s.selectable == nil || s.selectable(row)
}

// IsSelected reports whether row's id is in the selection.
func (s *Selectable[T, K]) IsSelected(row T) bool {
	_, ok := s.selected[s.rowID(row)]
	return ok
}

// Selected returns the selected rows in the order they were selected.
func (s *Selectable[T, K]) Selected() []T {
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.selected[id])
	}
	return out
}

// SelectedIDs returns the selected ids in selection order.
func (s *Selectable[T, K]) SelectedIDs() []K {
	out := make([]K, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the size of the selection.
func (s *Selectable[T, K]) Len() int {
	return len(s.order)
}

func (s *Selectable[T, K]) selectableVisible() []T {
	var out []T
	for _, r := range s.Table.rows {
		if s.IsSelectable(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *Selectable[T, K]) countSelected(rows []T) int {
	n := 0
	for _, r := range rows {
		if s.IsSelected(r) {
			n++
		}
	}
	return n
}

// IsAllSelected is true when there is at least one selectable visible row
// and every one of them is selected.
func (s *Selectable[T, K]) IsAllSelected() bool {
	rows := s.selectableVisible()
	return len(rows) > 0 && s.countSelected(rows) == len(rows)
}

// IsIndeterminate is true when some but not all selectable visible rows
// are selected.
func (s *Selectable[T, K]) IsIndeterminate() bool {
	rows := s.selectableVisible()
	n := s.countSelected(rows)
	return n > 0 && n < len(rows)
}

// SelectAll applies the header checkbox. Checking adds every selectable
// visible row in display order. Unchecking removes every visible row,
// selectable or not.
func (s *Selectable[T, K]) SelectAll(checked bool) {
	if checked {
		for _, r := range s.Rows() {
			if s.IsSelectable(r) {
				s.add(r)
			}
		}
	} else {
		for _, r := range s.Table.rows {
			s.remove(s.rowID(r))
		}
	}
	s.changed()
}

// ToggleRow flips one row. Rows failing the selectable filter are left
// alone and false is returned.
func (s *Selectable[T, K]) ToggleRow(row T) bool {
	if !s.IsSelectable(row) {
		return false
	}
	id := s.rowID(row)
	if _, ok := s.selected[id]; ok {
		s.remove(id)
	} else {
		s.add(row)
	}
	s.changed()
	return true
}

// Clear empties the selection.
func (s *Selectable[T, K]) Clear() {
	s.selected = map[K]T{}
	s.order = nil
	s.changed()
}

func (s *Selectable[T, K]) add(row T) {
	id := s.rowID(row)
	if _, ok := s.selected[id]; ok {
		s.selected[id] = row
		return
	}
	s.selected[id] = row
	s.order = append(s.order, id)
}

func (s *Selectable[T, K]) remove(id K) {
	if _, ok := s.selected[id]; !ok {
		return
	}
	delete(s.selected, id)
	for i, k := range s.order {
		if k == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Selectable[T, K]) changed() {
	if s.onChange != nil {
		s.onChange(s.Selected())
	}
}

// SelectableView extends View with checkbox state.
type SelectableView struct {
	View

	// Checked and Disabled are parallel to View.Rows.
	Checked  []bool `json:"checked"`
	Disabled []bool `json:"disabled"`

	AllSelected   bool `json:"allSelected"`
	Indeterminate bool `json:"indeterminate"`
}

// View renders the table with selection state. While loading only the
// base view is returned.
func (s *Selectable[T, K]) View() SelectableView {
	v := SelectableView{View: s.Table.View()}
	if v.Loading {
		return v
	}

	rows := s.Rows()
	v.Checked = make([]bool, len(rows))
	v.Disabled = make([]bool, len(rows))
	for i, r := range rows {
		v.Checked[i] = s.IsSelected(r)
		v.Disabled[i] = !s.IsSelectable(r)
	}
	v.AllSelected = s.IsAllSelected()
	v.Indeterminate = s.IsIndeterminate()
	return v
}
