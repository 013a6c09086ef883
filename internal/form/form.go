package form

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/roach88/apparelgrid/internal/rules"
)

// SubmitFunc is the submit effect. It receives a copy of the values and a
// context that is cancelled when the form is closed.
type SubmitFunc[T any] func(ctx context.Context, values T) error

// Options configures a Form.
type Options[T any] struct {
	// InitialValues seeds the form and is restored by Reset.
	InitialValues T

	// Rules maps field names to their ordered rule lists. Fields without
	// rules are always valid.
	Rules rules.Set

	// Submit is invoked by HandleSubmit once validation passes. Without
	// it HandleSubmit validates and stops.
	Submit SubmitFunc[T]

	// OnChange observes every state change.
	OnChange func(Snapshot[T])

	// Logger defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger

	// IDs names each submission. Defaults to UUIDv7Generator.
	IDs IDGenerator
}

// Snapshot is a consistent copy of the form state.
type Snapshot[T any] struct {
	Values     T                   `json:"values"`
	Errors     map[string][]string `json:"errors"`
	Valid      bool                `json:"valid"`
	Submitting bool                `json:"submitting"`
	Dirty      bool                `json:"dirty"`
}

// Form is the form state engine: current values, per-field errors and a
// validate-then-submit-then-settle pipeline.
//
// State transitions:
//
//	Idle --HandleSubmit(valid)--> Submitting --settle--> Idle
//	Submitting --Reset/Close--> Idle (the late settle is discarded)
//
// Thread-safety: all methods are safe for concurrent use. The submit
// effect runs without the lock held, so edits made while it is in flight
// are visible immediately (last write wins).
type Form[T any] struct {
	mu sync.Mutex

	binder   *binder
	initial  reflect.Value
	values   reflect.Value
	errors   map[string][]string
	rules    rules.Set
	submit   SubmitFunc[T]
	onChange func(Snapshot[T])
	log      logrus.FieldLogger
	ids      IDGenerator

	submitting bool
	closed     bool

	// epoch changes on every submit start, Reset and Close. A settle whose
	// epoch no longer matches is stale.
	epoch    uint64
	inflight map[uint64]context.CancelFunc
}

// New creates a form. The values type must be a string-keyed map or a
// struct, and every field named in Rules must exist.
func New[T any](opts Options[T]) (*Form[T], error) {
	t := reflect.TypeFor[T]()
	b, err := newBinder(t)
	if err != nil {
		return nil, err
	}

	initial := reflect.ValueOf(&opts.InitialValues).Elem()
	if b.isMap {
		keys := b.mapKeys(initial)
		slices.Sort(keys)
		b.learn(keys...)
		b.learn(opts.Rules.Fields()...)
	}
	for _, field := range opts.Rules.Fields() {
		if !b.has(field) {
			return nil, &FieldError{Field: field, Err: ErrUnknownField}
		}
	}

	f := &Form[T]{
		binder:   b,
		initial:  b.clone(initial),
		errors:   map[string][]string{},
		rules:    opts.Rules,
		submit:   opts.Submit,
		onChange: opts.OnChange,
		log:      opts.Logger,
		ids:      opts.IDs,
		inflight: map[uint64]context.CancelFunc{},
	}
	if f.log == nil {
		f.log = logrus.StandardLogger()
	}
	if f.ids == nil {
		f.ids = UUIDv7Generator{}
	}
	f.values = b.clone(f.initial)
	return f, nil
}

// MustNew is New for statically known values types.
func MustNew[T any](opts Options[T]) *Form[T] {
	f, err := New(opts)
	if err != nil {
		panic(fmt.Sprintf("form: %v", err))
	}
	return f
}

// Fields lists the known field names.
func (f *Form[T]) Fields() []string {
	return slices.Clone(f.binder.names)
}

// Values returns a copy of the current values.
func (f *Form[T]) Values() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valuesLocked()
}

func (f *Form[T]) valuesLocked() T {
	return f.binder.clone(f.values).Interface().(T)
}

// Value returns the current value of one field.
func (f *Form[T]) Value(field string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.binder.get(f.values, field)
}

// SetValue writes one field. An existing error on that field is cleared
// without re-running its rules.
func (f *Form[T]) SetValue(field string, value any) error {
	f.mu.Lock()
	if err := f.binder.set(f.values, field, value); err != nil {
		f.mu.Unlock()
		return err
	}
	delete(f.errors, field)
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
	return nil
}

// SetValues merges several fields at once. Errors are left untouched.
// Nothing is written unless every field is valid.
func (f *Form[T]) SetValues(values map[string]any) error {
	f.mu.Lock()
	names := slices.Sorted(maps.Keys(values))
	for _, name := range names {
		if err := f.binder.check(name, values[name]); err != nil {
			f.mu.Unlock()
			return err
		}
	}
	for _, name := range names {
		if err := f.binder.set(f.values, name, values[name]); err != nil {
			f.mu.Unlock()
			return err
		}
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
	return nil
}

// SetError replaces the errors of field with a single message.
func (f *Form[T]) SetError(field, message string) error {
	return f.mutate(field, func() { f.errors[field] = []string{message} })
}

// ClearError empties the errors of field.
func (f *Form[T]) ClearError(field string) error {
	return f.mutate(field, func() { delete(f.errors, field) })
}

// ClearErrors empties every error list.
func (f *Form[T]) ClearErrors() {
	f.mu.Lock()
	f.errors = map[string][]string{}
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
}

func (f *Form[T]) mutate(field string, apply func()) error {
	f.mu.Lock()
	if !f.binder.has(field) {
		f.mu.Unlock()
		return &FieldError{Field: field, Err: ErrUnknownField}
	}
	apply()
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)
	return nil
}

// Errors returns a copy of the non-empty error lists.
func (f *Form[T]) Errors() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errorsLocked()
}

func (f *Form[T]) errorsLocked() map[string][]string {
	out := make(map[string][]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = slices.Clone(v)
	}
	return out
}

// FieldErrors returns the errors of one field, never nil.
func (f *Form[T]) FieldErrors(field string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if errs := f.errors[field]; len(errs) > 0 {
		return slices.Clone(errs)
	}
	return []string{}
}

// ValidateField re-runs the rules of one field against its current value
// and overwrites its errors. Fields without rules are valid and untouched.
func (f *Form[T]) ValidateField(field string) (bool, error) {
	f.mu.Lock()
	if !f.binder.has(field) {
		f.mu.Unlock()
		return false, &FieldError{Field: field, Err: ErrUnknownField}
	}
	fieldRules, ok := f.rules[field]
	if !ok {
		f.mu.Unlock()
		return true, nil
	}

	value, _ := f.binder.get(f.values, field)
	result := rules.ValidateField(value, fieldRules)
	f.storeErrors(field, result.Errors)
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
	return result.Valid, nil
}

// ValidateAll re-runs every rule. The error map is replaced by the results,
// so errors on fields without rules are dropped. A form with no rules is
// always valid and its errors are left alone.
func (f *Form[T]) ValidateAll() bool {
	f.mu.Lock()
	if len(f.rules) == 0 {
		f.mu.Unlock()
		return true
	}
	valid := f.validateAllLocked()
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
	return valid
}

func (f *Form[T]) validateAllLocked() bool {
	if len(f.rules) == 0 {
		return true
	}
	f.errors = map[string][]string{}
	valid := true
	for field, fieldRules := range f.rules {
		value, _ := f.binder.get(f.values, field)
		result := rules.ValidateField(value, fieldRules)
		f.storeErrors(field, result.Errors)
		if !result.Valid {
			valid = false
		}
	}
	return valid
}

func (f *Form[T]) storeErrors(field string, errs []string) {
	if len(errs) == 0 {
		delete(f.errors, field)
		return
	}
	f.errors[field] = errs
}

// IsValid reports whether every error list is currently empty. It is not
// the result of the last validation: editing a field clears its errors
// and can make the form valid without re-running any rule.
func (f *Form[T]) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) == 0
}

// IsSubmitting reports whether a submit effect is in flight.
func (f *Form[T]) IsSubmitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// IsDirty reports whether the values differ from the initial values.
func (f *Form[T]) IsDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirtyLocked()
}

func (f *Form[T]) dirtyLocked() bool {
	return !reflect.DeepEqual(f.values.Interface(), f.initial.Interface())
}

// Reset restores the initial values, clears every error and forces the
// form back to Idle, even while a submit effect is in flight. That
// effect's settle is then discarded.
func (f *Form[T]) Reset() {
	f.mu.Lock()
	f.values = f.binder.clone(f.initial)
	f.errors = map[string][]string{}
	if f.submitting {
		f.log.Debug("form reset during submission")
	}
	f.submitting = false
	f.epoch++
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.notify(snap)
}

// Close cancels the context of every in-flight submit effect and discards
// their settles. Later HandleSubmit calls report OutcomeClosed. Close is
// idempotent.
func (f *Form[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.submitting = false
	f.epoch++
	cancels := slices.Collect(maps.Values(f.inflight))
	clear(f.inflight)
	f.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Snapshot returns a consistent copy of the whole state.
func (f *Form[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{
		Values:     f.valuesLocked(),
		Errors:     f.errorsLocked(),
		Valid:      len(f.errors) == 0,
		Submitting: f.submitting,
		Dirty:      f.dirtyLocked(),
	}
}

func (f *Form[T]) notify(snap Snapshot[T]) {
	if f.onChange != nil {
		f.onChange(snap)
	}
}
