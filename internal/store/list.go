package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/apparelgrid/internal/query"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// list runs one compiled listing and its count. Rows come back in the
// order the statement defines.
func list[T any](ctx context.Context, s *Store, schema query.Schema, p query.Params, scan func(scanner) (T, error)) (query.Page[T], error) {
	st, err := query.Compile(schema, p)
	if err != nil {
		return query.Page[T]{}, err
	}
	s.log.WithField("table", schema.Table).WithField("sql", st.SQL).Debug("listing")

	var total int
	if err := s.db.QueryRowContext(ctx, st.CountSQL, st.CountArgs...).Scan(&total); err != nil {
		return query.Page[T]{}, fmt.Errorf("count %s: %w", schema.Table, err)
	}

	rows, err := s.db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return query.Page[T]{}, fmt.Errorf("query %s: %w", schema.Table, err)
	}
	defer rows.Close()

	content := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return query.Page[T]{}, fmt.Errorf("scan %s: %w", schema.Table, err)
		}
		content = append(content, v)
	}
	if err := rows.Err(); err != nil {
		return query.Page[T]{}, fmt.Errorf("iterate %s: %w", schema.Table, err)
	}

	return query.NewPage(content, total, p.Pagination), nil
}

// timePtr converts a nullable column into an optional timestamp.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// nullTime normalizes an optional timestamp for storage.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
