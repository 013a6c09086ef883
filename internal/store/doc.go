// Package store provides the SQLite source behind the apparel, customer
// and order listings.
//
// Listings are compiled by the query package against a per-table
// Schema, so every sort and filter key is whitelisted and every value is
// bound as a parameter. Pages come back as query.Page values that feed
// the grid pagination directly.
//
// # Deterministic Ordering
//
// Every listing ends its ORDER BY with the row id, and a sorted column
// orders NULLs last in both directions. Server-side sort therefore agrees
// with the grid's in-memory sort on ties and missing values.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Timestamps are written in UTC.
package store
