// Package form is the form state engine.
//
// A Form owns one form instance: the current values, an ordered error list
// per field, and the submitting flag. Values are either a string-keyed map
// or a struct whose fields are addressed by `form` tag, `json` tag or Go
// name.
//
// Editing a field clears its errors at once without re-validating it, and
// IsValid is derived from the error lists rather than from the last
// validation run. Both are relied on by the pages that disable their save
// button while errors are shown.
//
// HandleSubmit validates, then calls the injected submit effect exactly
// once per successful validation, then returns to Idle however the effect
// settles. Reset and Close may be called while an effect is in flight; the
// effect's late settle is discarded and Close also cancels its context.
package form
