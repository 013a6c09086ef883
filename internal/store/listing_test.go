package store

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/grid"
	"github.com/roach88/apparelgrid/internal/query"
)

func seededStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	s := createTestStore(t, append([]Option{WithLogger(log)}, opts...)...)

	f, err := LoadFixture("testdata/fixture.yaml")
	require.NoError(t, err)
	require.NoError(t, s.Seed(context.Background(), f))
	return s
}

func apparelIDs(p query.Page[catalog.Apparel]) []int64 {
	ids := make([]int64, len(p.Content))
	for i, a := range p.Content {
		ids[i] = a.ID
	}
	return ids
}

func TestApparelsSortAndFilter(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params query.Params
		want   []int64
		total  int
	}{
		{"default order is id", query.Params{}, []int64{1, 2, 3, 4, 5}, 5},
		{"price asc keeps id order on ties", query.Params{Sort: &grid.Sort{Key: "price", Direction: grid.Asc}}, []int64{5, 3, 4, 1, 2}, 5},
		{"price desc keeps id order on ties", query.Params{Sort: &grid.Sort{Key: "price", Direction: grid.Desc}}, []int64{2, 1, 3, 4, 5}, 5},
		{"missing dates last ascending", query.Params{Sort: &grid.Sort{Key: "createdDate", Direction: grid.Asc}}, []int64{2, 1, 5, 4, 3}, 5},
		{"missing dates last descending", query.Params{Sort: &grid.Sort{Key: "createdDate", Direction: grid.Desc}}, []int64{4, 5, 1, 2, 3}, 5},
		{"style filter", query.Params{Filters: []query.Filter{{Field: "apparelStyle", Value: "Oversize"}}}, []int64{3, 5}, 2},
		{"numeric filter from text", query.Params{Filters: []query.Filter{{Field: "price", Value: "30", Operator: query.OpGte}}}, []int64{1, 2, 3, 4}, 4},
		{"like is case-insensitive", query.Params{Filters: []query.Filter{{Field: "apparelName", Value: "shirt", Operator: query.OpLike}}}, []int64{1}, 1},
		{"second page", query.Params{Pagination: query.Pagination{Page: 1, Size: 2}}, []int64{3, 4}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.Apparels(ctx, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, apparelIDs(page))
			assert.Equal(t, tt.total, page.TotalElements)
		})
	}
}

func TestApparelsPageShape(t *testing.T) {
	s := seededStore(t)

	page, err := s.Apparels(context.Background(), query.Params{Pagination: query.Pagination{Page: 2, Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Number)
	assert.True(t, page.Last)
	assert.False(t, page.First)
	assert.Equal(t, []int64{5}, apparelIDs(page))

	page, err = s.Apparels(context.Background(), query.Params{Filters: []query.Filter{{Field: "apparelStyle", Value: "Wrap"}}})
	require.NoError(t, err)
	assert.True(t, page.Empty)
	assert.Equal(t, []catalog.Apparel{}, page.Content)

	_, err = s.Apparels(context.Background(), query.Params{Sort: &grid.Sort{Key: "description"}})
	assert.ErrorIs(t, err, query.ErrUnknownField)
}

func TestApparelRoundTrip(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := seededStore(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	created, err := s.CreateApparel(ctx, catalog.Apparel{
		ID:             99,
		ApparelName:    "Cargo Shorts",
		ApparelStyle:   catalog.StyleLoose,
		QuantityOnHand: 3,
		Price:          28,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), created.ID)

	got, err := s.Apparel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cargo Shorts", got.ApparelName)
	assert.Equal(t, 28.0, got.Price)
	require.NotNil(t, got.CreatedDate)
	assert.True(t, fixed.Equal(*got.CreatedDate))

	seeded, err := s.Apparel(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, seeded.CreatedDate)
	assert.True(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC).Equal(*seeded.CreatedDate))

	_, err = s.Apparel(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteApparelKeepsOrderLines(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteApparel(ctx, 1))
	assert.ErrorIs(t, s.DeleteApparel(ctx, 1), ErrNotFound)

	o, err := s.Order(ctx, 1)
	require.NoError(t, err)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, int64(1), o.Lines[0].ApparelID)
	assert.Empty(t, o.Lines[0].ApparelName)
}

func TestCustomers(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	page, err := s.Customers(ctx, query.Params{Filters: []query.Filter{{Field: "city", Value: "London"}}})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Ada Lovelace", page.Content[0].Name)
	assert.Equal(t, "SW1Y 4JH", page.Content[0].PostalCode)

	c, err := s.CreateCustomer(ctx, catalog.Customer{Name: "Alan Turing", City: "Wilmslow"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)

	page, err = s.Customers(ctx, query.Params{Sort: &grid.Sort{Key: "name", Direction: grid.Desc}})
	require.NoError(t, err)
	names := []string{}
	for _, c := range page.Content {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Grace Hopper", "Alan Turing", "Ada Lovelace"}, names)
}

func TestOrders(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	page, err := s.Orders(ctx, query.Params{Sort: &grid.Sort{Key: "orderStatus"}})
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, int64(2), page.Content[0].ID)
	assert.Equal(t, catalog.StatusAllocated, page.Content[0].Status)
	assert.Len(t, page.Content[0].Lines, 2)
	assert.Equal(t, "Hoodie", page.Content[0].Lines[0].ApparelName)
	assert.Empty(t, page.Content[0].CustomerRef)
	assert.Equal(t, "PO-1001", page.Content[1].CustomerRef)

	o, err := s.Order(ctx, 2)
	require.NoError(t, err)
	require.Len(t, o.Shipments, 1)
	assert.Equal(t, "UPS", o.Shipments[0].Carrier)
	assert.True(t, time.Date(2024, 3, 4, 16, 0, 0, 0, time.UTC).Equal(o.Shipments[0].ShipmentDate))
}

func TestCreateOrder(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	_, err := s.CreateOrder(ctx, catalog.ApparelOrder{CustomerID: 1})
	assert.ErrorIs(t, err, ErrNoLines)

	_, err = s.CreateOrder(ctx, catalog.ApparelOrder{
		CustomerID: 99,
		Lines:      []catalog.ApparelOrderLine{{ApparelID: 1, OrderQuantity: 1}},
	})
	assert.Error(t, err, "unknown customer violates the foreign key")

	o, err := s.CreateOrder(ctx, catalog.ApparelOrder{
		CustomerID:    2,
		PaymentAmount: 45,
		Lines:         []catalog.ApparelOrderLine{{ApparelID: 1, OrderQuantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), o.ID)
	assert.Equal(t, catalog.StatusNew, o.Status)

	sh, err := s.AddShipment(ctx, o.ID, catalog.ApparelOrderShipment{
		ShipmentDate: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Carrier:      "DHL",
	})
	require.NoError(t, err)
	assert.NotZero(t, sh.ID)

	_, err = s.AddShipment(ctx, 404, sh)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedLogs(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	s := createTestStore(t, WithLogger(log))

	require.NoError(t, s.Seed(context.Background(), Fixture{Apparel: []catalog.Apparel{{ApparelName: "Tee", ApparelStyle: catalog.StyleFit}}}))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "store seeded", entry.Message)
	assert.Equal(t, 1, entry.Data["apparel"])
}

func TestParseFixture(t *testing.T) {
	f, err := ParseFixture(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Apparel)

	_, err = ParseFixture([]byte("shoes:\n  - id: 1\n"))
	assert.Error(t, err)
}
