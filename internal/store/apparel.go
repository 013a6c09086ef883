package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/apparelgrid/internal/catalog"
	"github.com/roach88/apparelgrid/internal/query"
)

// ApparelSchema whitelists the sortable and filterable apparel fields.
var ApparelSchema = query.Schema{
	Table: "apparel",
	Select: []string{
		"id", "version", "created_date", "update_date", "apparel_name", "apparel_style",
		"upc", "quantity_on_hand", "price", "description", "image_url",
	},
	Fields: map[string]query.Field{
		"id":             {Column: "id"},
		"apparelName":    {Column: "apparel_name", Text: true},
		"apparelStyle":   {Column: "apparel_style", Text: true},
		"upc":            {Column: "upc", Text: true},
		"quantityOnHand": {Column: "quantity_on_hand"},
		"price":          {Column: "price"},
		"createdDate":    {Column: "created_date"},
		"description":    {Column: "description", Text: true, NoSort: true},
	},
}

func scanApparel(row scanner) (catalog.Apparel, error) {
	var a catalog.Apparel
	var created, updated sql.NullTime
	err := row.Scan(&a.ID, &a.Version, &created, &updated, &a.ApparelName, &a.ApparelStyle,
		&a.UPC, &a.QuantityOnHand, &a.Price, &a.Description, &a.ImageURL)
	if err != nil {
		return catalog.Apparel{}, err
	}
	a.CreatedDate = timePtr(created)
	a.UpdateDate = timePtr(updated)
	return a, nil
}

// Apparels returns one page of apparel.
func (s *Store) Apparels(ctx context.Context, p query.Params) (query.Page[catalog.Apparel], error) {
	return list(ctx, s, ApparelSchema, p, scanApparel)
}

// Apparel returns one apparel by id.
func (s *Store) Apparel(ctx context.Context, id int64) (catalog.Apparel, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version, created_date, update_date, apparel_name, apparel_style,
		       upc, quantity_on_hand, price, description, image_url
		FROM apparel WHERE id = ?
	`, id)
	a, err := scanApparel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Apparel{}, fmt.Errorf("apparel %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return catalog.Apparel{}, fmt.Errorf("read apparel %d: %w", id, err)
	}
	return a, nil
}

// CreateApparel inserts a new apparel and returns it with its id and
// created date filled in.
func (s *Store) CreateApparel(ctx context.Context, a catalog.Apparel) (catalog.Apparel, error) {
	now := s.timestamp()
	a.ID = 0
	a.Version = 0
	a.CreatedDate = &now
	a.UpdateDate = &now

	id, err := insertApparel(ctx, s.db, a)
	if err != nil {
		return catalog.Apparel{}, fmt.Errorf("create apparel: %w", err)
	}
	a.ID = id
	s.log.WithField("apparel_id", id).Info("apparel created")
	return a, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertApparel writes a with its own id when non-zero.
func insertApparel(ctx context.Context, db execer, a catalog.Apparel) (int64, error) {
	var id any
	if a.ID != 0 {
		id = a.ID
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO apparel
		(id, version, created_date, update_date, apparel_name, apparel_style,
		 upc, quantity_on_hand, price, description, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		a.Version,
		nullTime(a.CreatedDate),
		nullTime(a.UpdateDate),
		a.ApparelName,
		a.ApparelStyle,
		a.UPC,
		a.QuantityOnHand,
		a.Price,
		a.Description,
		a.ImageURL,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteApparel removes one apparel. Order lines that reference it are
// kept.
func (s *Store) DeleteApparel(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM apparel WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete apparel %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete apparel %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("apparel %d: %w", id, ErrNotFound)
	}
	s.log.WithField("apparel_id", id).Info("apparel deleted")
	return nil
}
