package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/apparelgrid/internal/catalog"
)

// Fixture is a seed data set. Records keep their ids when set.
type Fixture struct {
	Apparel   []catalog.Apparel      `yaml:"apparel"`
	Customers []catalog.Customer     `yaml:"customers"`
	Orders    []catalog.ApparelOrder `yaml:"orders"`
}

// ParseFixture decodes a YAML fixture. Unknown keys are rejected and an
// empty document is an empty fixture.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return f, nil
}

// LoadFixture reads and decodes a YAML fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// Seed writes every record of f in one transaction. Customers are written
// before orders so order references resolve.
func (s *Store) Seed(ctx context.Context, f Fixture) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, a := range f.Apparel {
			if _, err := insertApparel(ctx, tx, a); err != nil {
				return fmt.Errorf("apparel %q: %w", a.ApparelName, err)
			}
		}
		for _, c := range f.Customers {
			if _, err := insertCustomer(ctx, tx, c); err != nil {
				return fmt.Errorf("customer %q: %w", c.Name, err)
			}
		}
		for _, o := range f.Orders {
			if o.Status == "" {
				o.Status = catalog.StatusNew
			}
			id, err := insertOrder(ctx, tx, o)
			if err != nil {
				return fmt.Errorf("order %d: %w", o.ID, err)
			}
			for _, l := range o.Lines {
				if _, err := insertLine(ctx, tx, id, l); err != nil {
					return fmt.Errorf("order %d line: %w", id, err)
				}
			}
			for _, sh := range o.Shipments {
				if _, err := insertShipment(ctx, tx, id, sh); err != nil {
					return fmt.Errorf("order %d shipment: %w", id, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	s.log.WithField("apparel", len(f.Apparel)).
		WithField("customers", len(f.Customers)).
		WithField("orders", len(f.Orders)).
		Info("store seeded")
	return nil
}
