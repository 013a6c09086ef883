// Package harness runs scripted table and form scenarios and records a
// deterministic trace of the state after every step.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: apparel_sort_select
//	description: "Sorting by price keeps selection by row id"
//	kind: table
//	entity: apparel
//	fixture: ../fixture.yaml
//	selectable: in_stock
//	steps:
//	  - action: click_header
//	    key: price
//	  - action: select_all
//	    checked: true
//	assertions:
//	  - type: order
//	    ids: [5, 3, 4, 1, 2]
//
// Table scenarios sort in memory by default. With source "store" the
// fixture is seeded into an in-memory SQLite store and every header click
// or page change re-queries it, the way a server-sorted listing behaves.
//
// Form scenarios build the catalog form of the entity with its rule bundle.
// set_value steps feed raw input text through Form.SetText. The submit
// effect either succeeds, fails with ErrRejected, or writes to a seeded
// store.
//
// # Assertion Types
//
//   - order: display order of row ids
//   - selection: selected row ids, compared as a set
//   - sort: active sort key and direction
//   - summary: the pagination summary line
//   - errors: the error list of one form field
//   - valid: form validity
//   - submitted: number of submit effect calls
//
// # Deterministic Testing
//
// Steps are numbered by testutil.StepCounter and submissions are named by
// testutil.SequenceIDGenerator, so traces compare byte for byte against
// golden files in testdata/golden.
package harness
