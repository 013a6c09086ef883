package query

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/apparelgrid/internal/grid"
)

// ErrUnknownField is returned when a sort or filter names a field that the
// schema does not expose.
var ErrUnknownField = errors.New("unknown field")

// Field maps one API field to a SQL column.
type Field struct {
	Column string

	// Text columns compare with COLLATE BINARY.
	Text bool

	// NoSort rejects sorting on the field. NoFilter rejects filtering.
	NoSort   bool
	NoFilter bool
}

// Schema whitelists the fields of one table. Only whitelisted fields ever
// reach the generated SQL; values are always bound as parameters.
type Schema struct {
	Table string

	// Key is the unique column used as the ORDER BY tiebreaker. Defaults
	// to "id".
	Key string

	// Select lists the selected columns in order.
	Select []string

	Fields map[string]Field
}

func (s Schema) key() string {
	if s.Key == "" {
		return "id"
	}
	return s.Key
}

// Filterable lists the fields that accept filters, sorted.
func (s Schema) Filterable() []string {
	var out []string
	for _, name := range slices.Sorted(maps.Keys(s.Fields)) {
		if !s.Fields[name].NoFilter {
			out = append(out, name)
		}
	}
	return out
}

// Statement is a compiled listing: the page query and its count query.
type Statement struct {
	SQL       string
	Args      []any
	CountSQL  string
	CountArgs []any
}

// Compile turns params into parameterized SQL.
//
// Every query ends in an ORDER BY whose last key is the schema key, so
// pages are stable across requests. A sorted column orders NULLs last in
// both directions, matching the in-memory sort of the grid package.
func Compile(s Schema, p Params) (Statement, error) {
	where, args, err := compileFilters(s, p.Filters)
	if err != nil {
		return Statement{}, err
	}
	order, err := compileOrder(s, p.Sort)
	if err != nil {
		return Statement{}, err
	}

	cols := "*"
	if len(s.Select) > 0 {
		cols = strings.Join(s.Select, ", ")
	}
	n := p.Normalize()

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?", cols, s.Table, where, order)
	pageArgs := append(slices.Clone(args), n.Size, n.Offset())

	return Statement{
		SQL:       b.String(),
		Args:      pageArgs,
		CountSQL:  fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.Table, where),
		CountArgs: args,
	}, nil
}

func compileFilters(s Schema, filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(filters))
	var args []any
	for _, f := range filters {
		field, ok := s.Fields[f.Field]
		if !ok || field.NoFilter {
			return "", nil, fmt.Errorf("filter %q: %w", f.Field, ErrUnknownField)
		}
		sql, arg, err := compileFilter(field, f)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, arg...)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

var comparisons = map[Operator]string{
	OpEq:  "=",
	OpNeq: "<>",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

func compileFilter(field Field, f Filter) (string, []any, error) {
	op := f.op()
	if f.Value == nil {
		switch op {
		case OpEq:
			return field.Column + " IS NULL", nil, nil
		case OpNeq:
			return field.Column + " IS NOT NULL", nil, nil
		}
		return "", nil, fmt.Errorf("filter %q: %s needs a value", f.Field, op)
	}
	if op == OpLike {
		pattern := "%" + escapeLike(grid.Display(f.Value)) + "%"
		return field.Column + ` LIKE ? ESCAPE '\'`, []any{pattern}, nil
	}
	sym, ok := comparisons[op]
	if !ok {
		return "", nil, fmt.Errorf("filter %q: %w: %q", f.Field, ErrUnknownOperator, op)
	}
	return fmt.Sprintf("%s %s ?", field.Column, sym), []any{f.Value}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func compileOrder(s Schema, sort *grid.Sort) (string, error) {
	tiebreak := s.key() + " ASC"
	if sort == nil {
		return tiebreak, nil
	}
	field, ok := s.Fields[sort.Key]
	if !ok || field.NoSort {
		return "", fmt.Errorf("sort %q: %w", sort.Key, ErrUnknownField)
	}

	dir := "ASC"
	switch sort.Direction {
	case grid.Asc, "":
	case grid.Desc:
		dir = "DESC"
	default:
		return "", fmt.Errorf("sort %q: unknown direction %q", sort.Key, sort.Direction)
	}

	col := field.Column
	collate := ""
	if field.Text {
		collate = " COLLATE BINARY"
	}
	if col == s.key() {
		return fmt.Sprintf("%s%s %s", col, collate, dir), nil
	}
	return fmt.Sprintf("%s IS NULL, %s%s %s, %s", col, col, collate, dir, tiebreak), nil
}
