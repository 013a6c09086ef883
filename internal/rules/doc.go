// Package rules is the validation vocabulary shared by every form.
//
// A Rule pairs a predicate with the message reported when it fails. Rules
// for one field run in declared order and every failing message is kept.
//
// Every built-in rule except Required passes on an empty value (nil, a nil
// pointer, or ""). Presence must be asked for explicitly by composing
// Required; a field carrying only PositiveNumber and no value is valid.
// Zero and false are present values: Required accepts them, and an empty
// slice or map that is not nil is present too.
//
// Rule sets can be written in Go or declared as CUE bundles and loaded
// with LoadBundles / CompileBundles.
package rules
