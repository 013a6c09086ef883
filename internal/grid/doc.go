// Package grid is the tabular data engine behind every list page.
//
// A Table owns column definitions and a caller-supplied row set. It never
// fetches or slices data; it decides display order, renders cells and
// reports header clicks.
//
// # Sort resolution
//
// When the caller installs an external sort (typically because the rows
// came back from a server query already ordered), the table keeps rows in
// input order and only raises OnSort on header clicks. Otherwise the table
// keeps its own descriptor and sorts stably, placing nil values last in
// both directions.
//
// # Selection
//
// Selectable adds a selection set keyed by a caller-supplied row id. The
// set persists across sorting and paging. The header checkbox is
// deliberately asymmetric: checking adds only selectable visible rows,
// unchecking removes every visible row.
//
// # Pagination
//
// Pager turns {page, pageSize, total} into the summary line, navigation
// state and page number strip. Navigation raises callbacks and leaves the
// descriptor untouched.
package grid
