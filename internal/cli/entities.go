package cli

import (
	"context"
	"fmt"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/grid"
	"github.com/roach88/apparelgrid/internal/query"
	"github.com/roach88/apparelgrid/internal/store"
)

// Entities lists the entities with a listing.
var Entities = []string{catalog.FormApparel, catalog.FormCustomer, catalog.FormOrder}

// Forms lists the entities with a create form.
var Forms = []string{catalog.FormApparel, catalog.FormCustomer, catalog.FormOrder, catalog.FormShipment}

// listing binds a catalog row type to everything the list command needs.
type listing[T any] struct {
	schema     query.Schema
	columns    func(*catalog.Formatter) []grid.Column[T]
	id         func(T) int64
	fetch      func(*store.Store) func(context.Context, query.Params) (query.Page[T], error)
	selectable func(T) bool
}

var apparelListing = listing[catalog.Apparel]{
	schema:     store.ApparelSchema,
	columns:    catalog.ApparelColumns,
	id:         catalog.ApparelID,
	fetch:      func(s *store.Store) func(context.Context, query.Params) (query.Page[catalog.Apparel], error) { return s.Apparels },
	selectable: catalog.InStock,
}

var customerListing = listing[catalog.Customer]{
	schema:  store.CustomerSchema,
	columns: catalog.CustomerColumns,
	id:      catalog.CustomerID,
	fetch:   func(s *store.Store) func(context.Context, query.Params) (query.Page[catalog.Customer], error) { return s.Customers },
}

var orderListing = listing[catalog.ApparelOrder]{
	schema:  store.OrderSchema,
	columns: catalog.OrderColumns,
	id:      catalog.OrderID,
	fetch: func(s *store.Store) func(context.Context, query.Params) (query.Page[catalog.ApparelOrder], error) {
		return s.Orders
	},
	selectable: func(o catalog.ApparelOrder) bool {
		return o.Status != catalog.StatusDelivered && o.Status != catalog.StatusCancelled
	},
}

// creator binds a form values type to its store write. The returned id is
// the id of the new record.
type creator[T any] func(ctx context.Context, st *store.Store, values T) (int64, error)

func createApparel(ctx context.Context, st *store.Store, v catalog.ApparelForm) (int64, error) {
	a, err := st.CreateApparel(ctx, v.Apparel())
	return a.ID, err
}

func createCustomer(ctx context.Context, st *store.Store, v catalog.CustomerForm) (int64, error) {
	c, err := st.CreateCustomer(ctx, v.Customer())
	return c.ID, err
}

func createOrder(ctx context.Context, st *store.Store, v catalog.OrderForm) (int64, error) {
	o, err := st.CreateOrder(ctx, v.Order())
	return o.ID, err
}

func createShipment(orderID int64) creator[catalog.ShipmentForm] {
	return func(ctx context.Context, st *store.Store, v catalog.ShipmentForm) (int64, error) {
		if orderID <= 0 {
			return 0, fmt.Errorf("shipments need --order")
		}
		sh, err := v.Shipment()
		if err != nil {
			return 0, fmt.Errorf("shipment date: %w", err)
		}
		sh, err = st.AddShipment(ctx, orderID, sh)
		return sh.ID, err
	}
}
