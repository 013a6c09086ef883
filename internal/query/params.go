package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/apparelgrid/internal/grid"
)

// Defaults applied by Pagination.Normalize.
const (
	DefaultPage = 0
	DefaultSize = 20
	MaxSize     = 1000
)

// Pagination selects one page. Page is 0-based.
type Pagination struct {
	Page int `json:"page" yaml:"page"`
	Size int `json:"size" yaml:"size"`
}

// Normalize replaces out-of-range values with the defaults.
func (p Pagination) Normalize() Pagination {
	if p.Page < 0 {
		p.Page = DefaultPage
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Offset is the number of rows before the page.
func (p Pagination) Offset() int {
	n := p.Normalize()
	return n.Page * n.Size
}

// Operator compares a field against a filter value.
type Operator string

const (
	OpEq   Operator = "eq"
	OpNeq  Operator = "neq"
	OpGt   Operator = "gt"
	OpGte  Operator = "gte"
	OpLt   Operator = "lt"
	OpLte  Operator = "lte"
	OpLike Operator = "like"
)

// Operators lists every supported operator.
var Operators = []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpLike}

// Valid reports whether op is supported. The empty operator means eq.
func (op Operator) Valid() bool {
	return op == "" || slices.Contains(Operators, op)
}

// ErrUnknownOperator is returned for operators outside Operators.
var ErrUnknownOperator = errors.New("unknown filter operator")

// Filter narrows a listing to rows whose Field compares to Value.
type Filter struct {
	Field    string   `json:"field" yaml:"field"`
	Value    any      `json:"value" yaml:"value"`
	Operator Operator `json:"operator,omitempty" yaml:"operator,omitempty"`
}

func (f Filter) op() Operator {
	if f.Operator == "" {
		return OpEq
	}
	return f.Operator
}

// Key is the query string key of the filter: the bare field for eq and
// field_op otherwise.
func (f Filter) Key() string {
	if f.op() == OpEq {
		return f.Field
	}
	return f.Field + "_" + string(f.Operator)
}

// Params is one listing request.
type Params struct {
	Pagination
	Sort    *grid.Sort `json:"sort,omitempty" yaml:"sort,omitempty"`
	Filters []Filter   `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// Values builds the query string of the request. Filters with a nil value
// are left out.
func (p Params) Values() url.Values {
	n := p.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(n.Page))
	v.Set("size", strconv.Itoa(n.Size))
	if p.Sort != nil {
		v.Set("sort", p.Sort.Key)
		v.Set("direction", string(p.Sort.Direction))
	}
	for _, f := range p.Filters {
		if f.Value == nil {
			continue
		}
		v.Add(f.Key(), grid.Display(f.Value))
	}
	return v
}

// Encode is Values().Encode().
func (p Params) Encode() string {
	return p.Values().Encode()
}

var reserved = map[string]bool{"page": true, "size": true, "sort": true, "direction": true}

// ParseValues is the inverse of Values. Filter values stay strings.
// Keys are decoded against known, the set of filterable fields; other
// keys are rejected.
func ParseValues(v url.Values, known []string) (Params, error) {
	var p Params
	var err error
	if s := v.Get("page"); s != "" {
		if p.Page, err = strconv.Atoi(s); err != nil {
			return Params{}, fmt.Errorf("page %q: %w", s, err)
		}
	}
	if s := v.Get("size"); s != "" {
		if p.Size, err = strconv.Atoi(s); err != nil {
			return Params{}, fmt.Errorf("size %q: %w", s, err)
		}
	}
	if key := v.Get("sort"); key != "" {
		dir := grid.Direction(strings.ToLower(v.Get("direction")))
		switch dir {
		case "":
			dir = grid.Asc
		case grid.Asc, grid.Desc:
		default:
			return Params{}, fmt.Errorf("direction %q: must be asc or desc", dir)
		}
		p.Sort = &grid.Sort{Key: key, Direction: dir}
	}

	keys := make([]string, 0, len(v))
	for k := range v {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		f, err := parseKey(k, known)
		if err != nil {
			return Params{}, err
		}
		for _, val := range v[k] {
			f.Value = val
			p.Filters = append(p.Filters, f)
		}
	}
	p.Pagination = p.Normalize()
	return p, nil
}

func parseKey(key string, known []string) (Filter, error) {
	if slices.Contains(known, key) {
		return Filter{Field: key, Operator: OpEq}, nil
	}
	if i := strings.LastIndexByte(key, '_'); i > 0 {
		field, op := key[:i], Operator(key[i+1:])
		if slices.Contains(known, field) {
			if !op.Valid() || op == "" {
				return Filter{}, fmt.Errorf("%w: %q", ErrUnknownOperator, op)
			}
			return Filter{Field: field, Operator: op}, nil
		}
	}
	return Filter{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
}

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// ErrMissingPathParam is returned by FormatPath for unfilled placeholders.
var ErrMissingPathParam = errors.New("missing path parameter")

// FormatPath fills {name} placeholders of template, path-escaping each
// value. Every placeholder must be supplied.
func FormatPath(template string, params map[string]any) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return url.PathEscape(grid.Display(v))
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingPathParam, strings.Join(missing, ", "))
	}
	return out, nil
}
