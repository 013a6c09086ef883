package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apparelgrid/internal/grid"
)

var apparelSchema = Schema{
	Table:  "apparel",
	Select: []string{"id", "apparel_name", "price"},
	Fields: map[string]Field{
		"id":          {Column: "id"},
		"apparelName": {Column: "apparel_name", Text: true},
		"price":       {Column: "price"},
		"upc":         {Column: "upc", Text: true, NoSort: true},
		"description": {Column: "description", NoSort: true, NoFilter: true},
	},
}

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"zero value", Pagination{}, Pagination{Page: 0, Size: DefaultSize}},
		{"negative page", Pagination{Page: -2, Size: 5}, Pagination{Page: 0, Size: 5}},
		{"oversized", Pagination{Page: 1, Size: 5000}, Pagination{Page: 1, Size: MaxSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
	assert.Equal(t, 30, Pagination{Page: 3, Size: 10}.Offset())
}

func TestCompileDefaultOrder(t *testing.T) {
	st, err := Compile(apparelSchema, Params{})
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, apparel_name, price FROM apparel ORDER BY id ASC LIMIT ? OFFSET ?", st.SQL)
	assert.Equal(t, []any{DefaultSize, 0}, st.Args)
	assert.Equal(t, "SELECT COUNT(*) FROM apparel", st.CountSQL)
	assert.Empty(t, st.CountArgs)
}

func TestCompileSortAndFilters(t *testing.T) {
	st, err := Compile(apparelSchema, Params{
		Pagination: Pagination{Page: 2, Size: 10},
		Sort:       &grid.Sort{Key: "apparelName", Direction: grid.Desc},
		Filters: []Filter{
			{Field: "apparelName", Value: "Sh_rt", Operator: OpLike},
			{Field: "price", Value: 10, Operator: OpGte},
		},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT id, apparel_name, price FROM apparel WHERE apparel_name LIKE ? ESCAPE '\' AND price >= ? `+
			`ORDER BY apparel_name IS NULL, apparel_name COLLATE BINARY DESC, id ASC LIMIT ? OFFSET ?`,
		st.SQL)
	assert.Equal(t, []any{`%Sh\_rt%`, 10, 10, 20}, st.Args)
	assert.Equal(t, `SELECT COUNT(*) FROM apparel WHERE apparel_name LIKE ? ESCAPE '\' AND price >= ?`, st.CountSQL)
	assert.Equal(t, []any{`%Sh\_rt%`, 10}, st.CountArgs)

	// Values are bound, never inlined.
	assert.NotContains(t, st.SQL, "Sh")
}

func TestCompileSortOnKey(t *testing.T) {
	st, err := Compile(apparelSchema, Params{Sort: &grid.Sort{Key: "id", Direction: grid.Desc}})
	require.NoError(t, err)
	assert.Contains(t, st.SQL, "ORDER BY id DESC LIMIT")
}

func TestCompileNullFilters(t *testing.T) {
	st, err := Compile(apparelSchema, Params{Filters: []Filter{
		{Field: "upc", Value: nil},
		{Field: "price", Value: nil, Operator: OpNeq},
	}})
	require.NoError(t, err)
	assert.Contains(t, st.SQL, "WHERE upc IS NULL AND price IS NOT NULL ORDER BY")

	_, err = Compile(apparelSchema, Params{Filters: []Filter{{Field: "price", Operator: OpGt}}})
	assert.Error(t, err)
}

func TestCompileRejectsUnlistedFields(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"unknown sort", Params{Sort: &grid.Sort{Key: "colour"}}},
		{"unsortable", Params{Sort: &grid.Sort{Key: "upc"}}},
		{"unknown filter", Params{Filters: []Filter{{Field: "colour", Value: "red"}}}},
		{"unfilterable", Params{Filters: []Filter{{Field: "description", Value: "x"}}}},
		{"injection attempt", Params{Sort: &grid.Sort{Key: "price; DROP TABLE apparel"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(apparelSchema, tt.params)
			assert.ErrorIs(t, err, ErrUnknownField)
		})
	}

	_, err := Compile(apparelSchema, Params{Filters: []Filter{{Field: "price", Value: 1, Operator: "between"}}})
	assert.ErrorIs(t, err, ErrUnknownOperator)

	_, err = Compile(apparelSchema, Params{Sort: &grid.Sort{Key: "price", Direction: "up"}})
	assert.Error(t, err)
}

func TestParamsValues(t *testing.T) {
	p := Params{
		Pagination: Pagination{Page: 1, Size: 10},
		Sort:       &grid.Sort{Key: "price", Direction: grid.Desc},
		Filters: []Filter{
			{Field: "apparelStyle", Value: "Fit"},
			{Field: "price", Value: 10.5, Operator: OpGte},
			{Field: "apparelName", Value: nil},
		},
	}
	assert.Equal(t, "apparelStyle=Fit&direction=desc&page=1&price_gte=10.5&size=10&sort=price", p.Encode())

	assert.Equal(t, "page=0&size=20", Params{}.Encode())
}

func TestParseValues(t *testing.T) {
	v, err := url.ParseQuery("price_gte=10&apparelName=Tee&page=2&size=5&sort=price&direction=DESC")
	require.NoError(t, err)

	p, err := ParseValues(v, apparelSchema.Filterable())
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 2, Size: 5}, p.Pagination)
	assert.Equal(t, &grid.Sort{Key: "price", Direction: grid.Desc}, p.Sort)
	assert.Equal(t, []Filter{
		{Field: "apparelName", Value: "Tee", Operator: OpEq},
		{Field: "price", Value: "10", Operator: OpGte},
	}, p.Filters)

	_, err = ParseValues(url.Values{"colour": {"red"}}, apparelSchema.Filterable())
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = ParseValues(url.Values{"price_between": {"1"}}, apparelSchema.Filterable())
	assert.ErrorIs(t, err, ErrUnknownOperator)

	_, err = ParseValues(url.Values{"sort": {"price"}, "direction": {"sideways"}}, nil)
	assert.Error(t, err)

	_, err = ParseValues(url.Values{"page": {"two"}}, nil)
	assert.Error(t, err)
}

func TestFilterable(t *testing.T) {
	assert.Equal(t, []string{"apparelName", "id", "price", "upc"}, apparelSchema.Filterable())
}

func TestFormatPath(t *testing.T) {
	got, err := FormatPath("/api/v1/apparels/{id}", map[string]any{"id": 12})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/apparels/12", got)

	got, err = FormatPath("/api/v1/customers/{customerId}/orders/{ref}", map[string]any{"customerId": 3, "ref": "a b"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/customers/3/orders/a%20b", got)

	_, err = FormatPath("/api/v1/apparels/{id}", nil)
	assert.ErrorIs(t, err, ErrMissingPathParam)
}

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"a", "b", "c"}, 23, Pagination{Page: 2, Size: 10})
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 2, p.Number)
	assert.False(t, p.First)
	assert.True(t, p.Last)
	assert.False(t, p.Empty)

	pager := p.Pager()
	assert.Equal(t, 3, pager.Page)
	assert.Equal(t, "Showing 21 to 23 of 23 results", pager.Summary())
	assert.Equal(t, Pagination{Page: 0, Size: 10}, p.Pagination(1))

	empty := NewPage[int](nil, 0, Pagination{})
	assert.Equal(t, []int{}, empty.Content)
	assert.Zero(t, empty.TotalPages)
	assert.True(t, empty.First)
	assert.True(t, empty.Last)
	assert.True(t, empty.Empty)
}
