package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/query"
)

// ErrNoLines is returned when an order is created without lines.
var ErrNoLines = errors.New("apparel order must have at least one apparel order line")

// OrderSchema whitelists the sortable and filterable order fields.
var OrderSchema = query.Schema{
	Table: "apparel_order",
	Select: []string{
		"id", "version", "created_date", "update_date", "customer_id", "customer_ref",
		"payment_amount", "order_status",
	},
	Fields: map[string]query.Field{
		"id":            {Column: "id"},
		"customerId":    {Column: "customer_id"},
		"customerRef":   {Column: "customer_ref", Text: true},
		"paymentAmount": {Column: "payment_amount"},
		"orderStatus":   {Column: "order_status", Text: true},
		"createdDate":   {Column: "created_date"},
	},
}

func scanOrder(row scanner) (catalog.ApparelOrder, error) {
	var o catalog.ApparelOrder
	var created, updated sql.NullTime
	var customerID sql.NullInt64
	var ref sql.NullString
	var status string
	err := row.Scan(&o.ID, &o.Version, &created, &updated, &customerID, &ref, &o.PaymentAmount, &status)
	if err != nil {
		return catalog.ApparelOrder{}, err
	}
	o.CreatedDate = timePtr(created)
	o.UpdateDate = timePtr(updated)
	o.CustomerID = customerID.Int64
	o.CustomerRef = ref.String
	o.Status = catalog.OrderStatus(status)
	o.Lines = []catalog.ApparelOrderLine{}
	return o, nil
}

// Orders returns one page of orders with their lines.
func (s *Store) Orders(ctx context.Context, p query.Params) (query.Page[catalog.ApparelOrder], error) {
	page, err := list(ctx, s, OrderSchema, p, scanOrder)
	if err != nil {
		return page, err
	}
	if err := s.attachLines(ctx, page.Content); err != nil {
		return query.Page[catalog.ApparelOrder]{}, err
	}
	return page, nil
}

// Order returns one order with its lines and shipments.
func (s *Store) Order(ctx context.Context, id int64) (catalog.ApparelOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version, created_date, update_date, customer_id, customer_ref,
		       payment_amount, order_status
		FROM apparel_order WHERE id = ?
	`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.ApparelOrder{}, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return catalog.ApparelOrder{}, fmt.Errorf("read order %d: %w", id, err)
	}

	orders := []catalog.ApparelOrder{o}
	if err := s.attachLines(ctx, orders); err != nil {
		return catalog.ApparelOrder{}, err
	}
	o = orders[0]
	if o.Shipments, err = s.shipments(ctx, id); err != nil {
		return catalog.ApparelOrder{}, err
	}
	return o, nil
}

// attachLines loads the lines of every order in one query. Apparel
// details are joined in; lines whose apparel was deleted keep only the id.
func (s *Store) attachLines(ctx context.Context, orders []catalog.ApparelOrder) error {
	if len(orders) == 0 {
		return nil
	}
	index := make(map[int64]int, len(orders))
	args := make([]any, len(orders))
	for i, o := range orders {
		index[o.ID] = i
		args[i] = o.ID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.apparel_order_id, l.id, l.apparel_id, a.apparel_name, a.apparel_style, a.upc,
		       l.order_quantity, l.quantity_allocated, l.status
		FROM apparel_order_line l
		LEFT JOIN apparel a ON a.id = l.apparel_id
		WHERE l.apparel_order_id IN (`+placeholders(len(args))+`)
		ORDER BY l.apparel_order_id ASC, l.id ASC
	`, args...)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var l catalog.ApparelOrderLine
		var name, style, upc sql.NullString
		if err := rows.Scan(&orderID, &l.ID, &l.ApparelID, &name, &style, &upc,
			&l.OrderQuantity, &l.QuantityAllocated, &l.Status); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		l.ApparelName, l.ApparelStyle, l.UPC = name.String, style.String, upc.String
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order lines: %w", err)
	}
	return nil
}

func (s *Store) shipments(ctx context.Context, orderID int64) ([]catalog.ApparelOrderShipment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shipment_date, carrier, tracking_number
		FROM apparel_order_shipment
		WHERE apparel_order_id = ?
		ORDER BY shipment_date ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}
	defer rows.Close()

	out := []catalog.ApparelOrderShipment{}
	for rows.Next() {
		var sh catalog.ApparelOrderShipment
		if err := rows.Scan(&sh.ID, &sh.ShipmentDate, &sh.Carrier, &sh.TrackingNumber); err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		sh.ShipmentDate = sh.ShipmentDate.UTC()
		out = append(out, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipments: %w", err)
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// CreateOrder inserts an order with its lines in one transaction. New
// orders start in StatusNew unless a status is given.
func (s *Store) CreateOrder(ctx context.Context, o catalog.ApparelOrder) (catalog.ApparelOrder, error) {
	if len(o.Lines) == 0 {
		return catalog.ApparelOrder{}, ErrNoLines
	}
	now := s.timestamp()
	o.ID = 0
	o.Version = 0
	o.CreatedDate = &now
	o.UpdateDate = &now
	if o.Status == "" {
		o.Status = catalog.StatusNew
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		id, err := insertOrder(ctx, tx, o)
		if err != nil {
			return err
		}
		o.ID = id
		for i := range o.Lines {
			if o.Lines[i].ID, err = insertLine(ctx, tx, id, o.Lines[i]); err != nil {
				return err
			}
		}
		for i := range o.Shipments {
			if o.Shipments[i].ID, err = insertShipment(ctx, tx, id, o.Shipments[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return catalog.ApparelOrder{}, fmt.Errorf("create order: %w", err)
	}
	s.log.WithField("order_id", o.ID).WithField("lines", len(o.Lines)).Info("order created")
	return o, nil
}

// AddShipment records a shipment against an existing order.
func (s *Store) AddShipment(ctx context.Context, orderID int64, sh catalog.ApparelOrderShipment) (catalog.ApparelOrderShipment, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM apparel_order WHERE id = ?`, orderID).Scan(&exists)
	if err != nil {
		return catalog.ApparelOrderShipment{}, fmt.Errorf("add shipment: %w", err)
	}
	if exists == 0 {
		return catalog.ApparelOrderShipment{}, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}

	sh.ShipmentDate = sh.ShipmentDate.UTC()
	if sh.ID, err = insertShipment(ctx, s.db, orderID, sh); err != nil {
		return catalog.ApparelOrderShipment{}, fmt.Errorf("add shipment: %w", err)
	}
	s.log.WithField("order_id", orderID).WithField("carrier", sh.Carrier).Info("shipment added")
	return sh, nil
}

func insertOrder(ctx context.Context, db execer, o catalog.ApparelOrder) (int64, error) {
	var id, customerID, ref any
	if o.ID != 0 {
		id = o.ID
	}
	if o.CustomerID != 0 {
		customerID = o.CustomerID
	}
	if o.CustomerRef != "" {
		ref = o.CustomerRef
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO apparel_order
		(id, version, created_date, update_date, customer_id, customer_ref, payment_amount, order_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		o.Version,
		nullTime(o.CreatedDate),
		nullTime(o.UpdateDate),
		customerID,
		ref,
		o.PaymentAmount,
		string(o.Status),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertLine(ctx context.Context, db execer, orderID int64, l catalog.ApparelOrderLine) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO apparel_order_line
		(apparel_order_id, apparel_id, order_quantity, quantity_allocated, status)
		VALUES (?, ?, ?, ?, ?)
	`, orderID, l.ApparelID, l.OrderQuantity, l.QuantityAllocated, l.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertShipment(ctx context.Context, db execer, orderID int64, sh catalog.ApparelOrderShipment) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO apparel_order_shipment
		(apparel_order_id, shipment_date, carrier, tracking_number)
		VALUES (?, ?, ?, ?)
	`, orderID, sh.ShipmentDate.UTC(), sh.Carrier, sh.TrackingNumber)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
