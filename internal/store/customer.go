package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/query"
)

// CustomerSchema whitelists the sortable and filterable customer fields.
var CustomerSchema = query.Schema{
	Table: "customer",
	Select: []string{
		"id", "version", "created_date", "update_date", "name", "email", "phone_number",
		"address_line1", "address_line2", "city", "state", "postal_code",
	},
	Fields: map[string]query.Field{
		"id":          {Column: "id"},
		"name":        {Column: "name", Text: true},
		"email":       {Column: "email", Text: true},
		"phoneNumber": {Column: "phone_number", Text: true, NoSort: true},
		"city":        {Column: "city", Text: true},
		"state":       {Column: "state", Text: true},
		"postalCode":  {Column: "postal_code", Text: true},
		"createdDate": {Column: "created_date"},
	},
}

func scanCustomer(row scanner) (catalog.Customer, error) {
	var c catalog.Customer
	var created, updated sql.NullTime
	err := row.Scan(&c.ID, &c.Version, &created, &updated, &c.Name, &c.Email, &c.PhoneNumber,
		&c.AddressLine1, &c.AddressLine2, &c.City, &c.State, &c.PostalCode)
	if err != nil {
		return catalog.Customer{}, err
	}
	c.CreatedDate = timePtr(created)
	c.UpdateDate = timePtr(updated)
	return c, nil
}

// Customers returns one page of customers.
func (s *Store) Customers(ctx context.Context, p query.Params) (query.Page[catalog.Customer], error) {
	return list(ctx, s, CustomerSchema, p, scanCustomer)
}

// CreateCustomer inserts a new customer and returns it with its id and
// created date filled in.
func (s *Store) CreateCustomer(ctx context.Context, c catalog.Customer) (catalog.Customer, error) {
	now := s.timestamp()
	c.ID = 0
	c.Version = 0
	c.CreatedDate = &now
	c.UpdateDate = &now

	id, err := insertCustomer(ctx, s.db, c)
	if err != nil {
		return catalog.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	c.ID = id
	s.log.WithField("customer_id", id).Info("customer created")
	return c, nil
}

func insertCustomer(ctx context.Context, db execer, c catalog.Customer) (int64, error) {
	var id any
	if c.ID != 0 {
		id = c.ID
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO customer
		(id, version, created_date, update_date, name, email, phone_number,
		 address_line1, address_line2, city, state, postal_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		c.Version,
		nullTime(c.CreatedDate),
		nullTime(c.UpdateDate),
		c.Name,
		c.Email,
		c.PhoneNumber,
		c.AddressLine1,
		c.AddressLine2,
		c.City,
		c.State,
		c.PostalCode,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
