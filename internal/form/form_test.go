package form

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apparelgrid/internal/rules"
	"github.com/roach88/apparelgrid/internal/testutil"
)

type apparelValues struct {
	Name     string   `form:"apparelName"`
	Style    string   `json:"apparelStyle"`
	Price    *float64 `form:"price"`
	Quantity int      `form:"quantityOnHand"`
	internal string
}

func apparelRules() rules.Set {
	return rules.Set{
		"apparelName": {rules.Required(), rules.MinLength(2)},
		"price":       {rules.Required(), rules.PositiveNumber()},
	}
}

func TestEndToEndInvalidSubmit(t *testing.T) {
	calls := 0
	f, err := New(Options[map[string]any]{
		InitialValues: map[string]any{"apparelName": "", "price": nil},
		Rules:         apparelRules(),
		Submit: func(context.Context, map[string]any) error {
			calls++
			return nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, f.SetValue("apparelName", "A"))
	out := f.HandleSubmit(context.Background())

	assert.Equal(t, OutcomeInvalid, out.Status)
	assert.False(t, out.Invoked())
	assert.Zero(t, calls)
	assert.Equal(t, []string{"Must be at least 2 characters"}, f.FieldErrors("apparelName"))
	assert.Equal(t, []string{"This field is required"}, f.FieldErrors("price"))
	assert.False(t, f.IsValid())
	assert.False(t, f.IsSubmitting())
}

func TestSetValueClearsErrorsWithoutValidating(t *testing.T) {
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"name": ""},
		Rules:         rules.Set{"name": {rules.Required("Apparel name is required")}},
	})

	ok, err := f.ValidateField("name")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"Apparel name is required"}, f.FieldErrors("name"))

	// Even an empty value clears the error: rules are not re-run.
	require.NoError(t, f.SetValue("name", ""))
	assert.Equal(t, []string{}, f.FieldErrors("name"))
	assert.True(t, f.IsValid())
}

func TestEmptyValuePassesOptionalRules(t *testing.T) {
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"price": nil},
		Rules:         rules.Set{"price": {rules.PositiveNumber()}},
	})

	ok, err := f.ValidateField("price")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.Errors())
}

func TestValidateFieldWithoutRules(t *testing.T) {
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"notes": "x"},
	})
	require.NoError(t, f.SetError("notes", "server says no"))

	ok, err := f.ValidateField("notes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"server says no"}, f.FieldErrors("notes"))

	_, err = f.ValidateField("missing")
	assert.True(t, IsUnknownField(err))
}

func TestValidateAllReplacesErrorMap(t *testing.T) {
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"apparelName": "Tee", "price": 5.0, "notes": ""},
		Rules:         apparelRules(),
	})
	require.NoError(t, f.SetError("notes", "stale"))

	assert.True(t, f.ValidateAll())
	assert.Empty(t, f.Errors())
}

func TestValidateAllWithoutRulesLeavesErrors(t *testing.T) {
	f := MustNew(Options[map[string]any]{InitialValues: map[string]any{"a": 1}})
	require.NoError(t, f.SetError("a", "boom"))

	assert.True(t, f.ValidateAll())
	assert.Equal(t, map[string][]string{"a": {"boom"}}, f.Errors())
}

func TestSetValuesKeepsErrors(t *testing.T) {
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"apparelName": "", "price": nil},
		Rules:         apparelRules(),
	})
	f.ValidateAll()

	require.NoError(t, f.SetValues(map[string]any{"apparelName": "Hoodie", "price": 30.0}))
	assert.Equal(t, "Hoodie", f.Values()["apparelName"])
	assert.Len(t, f.Errors(), 2)
	assert.False(t, f.IsValid())

	err := f.SetValues(map[string]any{"apparelName": "Cap", "colour": "red"})
	assert.True(t, IsUnknownField(err))
	assert.Equal(t, "Hoodie", f.Values()["apparelName"], "partial writes must not happen")
}

func TestSetErrorReplaces(t *testing.T) {
	f := MustNew(Options[map[string]any]{InitialValues: map[string]any{"email": ""}})
	require.NoError(t, f.SetError("email", "one"))
	require.NoError(t, f.SetError("email", "two"))
	assert.Equal(t, []string{"two"}, f.FieldErrors("email"))

	require.NoError(t, f.ClearError("email"))
	assert.True(t, f.IsValid())

	require.NoError(t, f.SetError("email", "three"))
	f.ClearErrors()
	assert.Empty(t, f.Errors())

	assert.True(t, IsUnknownField(f.SetError("phone", "x")))
}

func TestResetRestoresExactly(t *testing.T) {
	initial := map[string]any{"apparelName": "", "price": nil}
	f := MustNew(Options[map[string]any]{InitialValues: initial, Rules: apparelRules()})

	require.NoError(t, f.SetValue("apparelName", "X"))
	require.NoError(t, f.SetError("price", "bad"))
	assert.False(t, f.ValidateAll())
	assert.True(t, f.IsDirty())

	f.Reset()
	assert.Equal(t, initial, f.Values())
	assert.Empty(t, f.Errors())
	assert.False(t, f.IsSubmitting())
	assert.False(t, f.IsDirty())
}

func TestValuesAreCopies(t *testing.T) {
	initial := map[string]any{"apparelName": "Tee"}
	f := MustNew(Options[map[string]any]{InitialValues: initial})

	v := f.Values()
	v["apparelName"] = "mutated"
	require.NoError(t, f.SetValue("apparelName", "Cap"))

	assert.Equal(t, "Tee", initial["apparelName"])
	got, err := f.Value("apparelName")
	require.NoError(t, err)
	assert.Equal(t, "Cap", got)
}

type listingValues struct {
	Price *float64          `form:"price"`
	Tags  []string          `form:"tags"`
	Attrs map[string]string `form:"attrs"`
}

func newListingForm(t *testing.T, price *float64, submit SubmitFunc[listingValues]) *Form[listingValues] {
	t.Helper()
	f, err := New(Options[listingValues]{
		InitialValues: listingValues{
			Price: price,
			Tags:  []string{"linen"},
			Attrs: map[string]string{"fit": "loose"},
		},
		Rules:  rules.Set{"price": {rules.Required(), rules.PositiveNumber()}},
		Submit: submit,
	})
	require.NoError(t, err)
	return f
}

func TestResetAfterMutatingValuesCopy(t *testing.T) {
	price := 10.0
	f := newListingForm(t, &price, nil)

	v := f.Values()
	*v.Price = 99
	v.Tags[0] = "denim"
	v.Attrs["fit"] = "slim"
	assert.False(t, f.IsDirty())

	f.Reset()
	got := f.Values()
	assert.Equal(t, 10.0, *got.Price)
	assert.Equal(t, []string{"linen"}, got.Tags)
	assert.Equal(t, map[string]string{"fit": "loose"}, got.Attrs)
	assert.Equal(t, 10.0, price)
}

func TestCallerInitialValuesAreNotShared(t *testing.T) {
	price := 10.0
	f := newListingForm(t, &price, nil)

	price = 42
	assert.False(t, f.IsDirty())

	got, err := f.Value("price")
	require.NoError(t, err)
	assert.Equal(t, 10.0, *got.(*float64))

	// A pointer read through Value is a copy as well.
	*got.(*float64) = 7
	f.Reset()
	assert.Equal(t, 10.0, *f.Values().Price)
}

func TestSetValueStoresCopy(t *testing.T) {
	f := newListingForm(t, nil, nil)

	tags := []string{"oversize"}
	require.NoError(t, f.SetValue("tags", tags))
	tags[0] = "fit"

	assert.Equal(t, []string{"oversize"}, f.Values().Tags)
}

func TestResetAfterSubmitEffectMutatesValues(t *testing.T) {
	price := 10.0
	f := newListingForm(t, &price, func(_ context.Context, v listingValues) error {
		*v.Price = -5
		v.Tags[0] = "changed"
		return nil
	})

	out := f.HandleSubmit(context.Background())
	require.Equal(t, OutcomeSubmitted, out.Status)

	f.Reset()
	got := f.Values()
	assert.Equal(t, 10.0, *got.Price)
	assert.Equal(t, []string{"linen"}, got.Tags)
	assert.True(t, f.ValidateAll())
}

func TestMapValuesAreDeepCopies(t *testing.T) {
	initial := map[string]any{"tags": []string{"linen"}}
	f := MustNew(Options[map[string]any]{InitialValues: initial})

	v := f.Values()
	v["tags"].([]string)[0] = "denim"
	f.Reset()

	assert.Equal(t, []string{"linen"}, f.Values()["tags"])
	assert.Equal(t, []string{"linen"}, initial["tags"])
}

func TestStructValues(t *testing.T) {
	f, err := New(Options[apparelValues]{
		InitialValues: apparelValues{Quantity: 1},
		Rules:         apparelRules(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"apparelName", "apparelStyle", "price", "quantityOnHand"}, f.Fields())

	require.NoError(t, f.SetValue("apparelName", "Polo"))
	require.NoError(t, f.SetValue("apparelStyle", "POLO"))
	require.NoError(t, f.SetValue("price", 25.5))
	assert.True(t, f.ValidateAll())

	v := f.Values()
	assert.Equal(t, "Polo", v.Name)
	require.NotNil(t, v.Price)
	assert.Equal(t, 25.5, *v.Price)

	require.NoError(t, f.SetValue("price", nil))
	assert.False(t, f.ValidateAll())
	assert.Equal(t, []string{rules.MsgRequired}, f.FieldErrors("price"))

	err = f.SetValue("quantityOnHand", "three")
	assert.True(t, IsTypeMismatch(err))
	var fieldErr *FieldError
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, "quantityOnHand", fieldErr.Field)
	assert.Equal(t, "int", fieldErr.Want)
	assert.Equal(t, "string", fieldErr.Got)

	assert.True(t, IsTypeMismatch(f.SetValue("apparelName", nil)))
	assert.True(t, IsUnknownField(f.SetValue("internal", "x")))
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	_, err := New(Options[int]{})
	assert.True(t, errors.Is(err, ErrUnsupportedValues))

	_, err = New(Options[map[int]any]{})
	assert.True(t, errors.Is(err, ErrUnsupportedValues))

	_, err = New(Options[apparelValues]{Rules: rules.Set{"colour": {rules.Required()}}})
	assert.True(t, IsUnknownField(err))

	assert.Panics(t, func() { MustNew(Options[string]{}) })
}

func TestHandleSubmitSuccess(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	var got map[string]any
	var gotID string

	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"apparelName": "Tee", "price": "9.99"},
		Rules:         apparelRules(),
		Logger:        logger,
		IDs:           testutil.NewFixedIDGenerator("sub-1"),
		Submit: func(ctx context.Context, v map[string]any) error {
			got = v
			gotID = SubmissionID(ctx)
			return nil
		},
	})

	out := f.HandleSubmit(context.Background())
	assert.Equal(t, Outcome{Status: OutcomeSubmitted, SubmissionID: "sub-1"}, out)
	assert.Equal(t, "Tee", got["apparelName"])
	assert.Equal(t, "sub-1", gotID)
	assert.False(t, f.IsSubmitting())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "form submitted", hook.LastEntry().Message)
	assert.Equal(t, "sub-1", hook.LastEntry().Data["submission_id"])
}

func TestHandleSubmitFailureIsSwallowed(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	boom := errors.New("backend unavailable")

	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"apparelName": "Tee", "price": 1},
		Rules:         apparelRules(),
		Logger:        logger,
		IDs:           testutil.NewSequenceIDGenerator("sub"),
		Submit:        func(context.Context, map[string]any) error { return boom },
	})

	out := f.HandleSubmit(context.Background())
	assert.Equal(t, OutcomeFailed, out.Status)
	assert.ErrorIs(t, out.Err, boom)
	assert.False(t, f.IsSubmitting())
	assert.Empty(t, f.Errors(), "submission errors are not turned into field errors")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, boom, entry.Data[logrus.ErrorKey])
}

func TestHandleSubmitRecoversPanics(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"x": 1},
		Logger:        logger,
		Submit:        func(context.Context, map[string]any) error { panic("kaboom") },
	})

	out := f.HandleSubmit(context.Background())
	assert.Equal(t, OutcomeFailed, out.Status)
	assert.Contains(t, out.Err.Error(), "kaboom")
	assert.False(t, f.IsSubmitting())
}

func TestHandleSubmitWithoutEffect(t *testing.T) {
	f := MustNew(Options[map[string]any]{InitialValues: map[string]any{"x": 1}})
	out := f.HandleSubmit(context.Background())
	assert.Equal(t, OutcomeNoEffect, out.Status)
	assert.False(t, f.IsSubmitting())
}

// blockingForm returns a form whose effect blocks until release is closed.
func blockingForm(t *testing.T) (f *Form[map[string]any], started, release chan struct{}, calls *int) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	started = make(chan struct{})
	release = make(chan struct{})
	calls = new(int)
	var once sync.Once

	f = MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"apparelName": "Tee", "price": 2},
		Rules:         apparelRules(),
		Logger:        logger,
		IDs:           testutil.NewSequenceIDGenerator("sub"),
		Submit: func(ctx context.Context, _ map[string]any) error {
			*calls++
			once.Do(func() { close(started) })
			select {
			case <-release:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
	return f, started, release, calls
}

func TestHandleSubmitReentrancyGuard(t *testing.T) {
	f, started, release, calls := blockingForm(t)

	first := make(chan Outcome)
	go func() { first <- f.HandleSubmit(context.Background()) }()
	<-started

	assert.True(t, f.IsSubmitting())
	assert.Equal(t, OutcomeBusy, f.HandleSubmit(context.Background()).Status)

	close(release)
	assert.Equal(t, OutcomeSubmitted, (<-first).Status)
	assert.Equal(t, 1, *calls)
	assert.False(t, f.IsSubmitting())
}

func TestResetDuringSubmitDiscardsSettle(t *testing.T) {
	f, started, release, _ := blockingForm(t)

	first := make(chan Outcome)
	go func() { first <- f.HandleSubmit(context.Background()) }()
	<-started

	require.NoError(t, f.SetValue("apparelName", "Changed mid-flight"))
	f.Reset()
	assert.False(t, f.IsSubmitting())
	assert.Equal(t, "Tee", f.Values()["apparelName"])

	close(release)
	out := <-first
	assert.Equal(t, OutcomeDiscarded, out.Status)
	assert.True(t, out.Invoked())
	assert.False(t, f.IsSubmitting())
}

func TestCloseCancelsInFlightSubmit(t *testing.T) {
	f, started, _, _ := blockingForm(t)

	first := make(chan Outcome)
	go func() { first <- f.HandleSubmit(context.Background()) }()
	<-started

	f.Close()
	out := <-first
	assert.Equal(t, OutcomeDiscarded, out.Status)
	assert.ErrorIs(t, out.Err, context.Canceled)

	out = f.HandleSubmit(context.Background())
	assert.Equal(t, OutcomeClosed, out.Status)
	assert.ErrorIs(t, out.Err, ErrClosed)

	f.Close()
}

func TestOnChangeObservesEveryChange(t *testing.T) {
	var snaps []Snapshot[map[string]any]
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"apparelName": "", "price": nil},
		Rules:         apparelRules(),
		OnChange:      func(s Snapshot[map[string]any]) { snaps = append(snaps, s) },
	})

	require.NoError(t, f.SetValue("apparelName", "A"))
	f.ValidateAll()
	f.Reset()

	require.Len(t, snaps, 3)
	assert.True(t, snaps[0].Dirty)
	assert.True(t, snaps[0].Valid)
	assert.False(t, snaps[1].Valid)
	assert.Len(t, snaps[1].Errors, 2)
	assert.Equal(t, Snapshot[map[string]any]{
		Values: map[string]any{"apparelName": "", "price": nil},
		Errors: map[string][]string{},
		Valid:  true,
	}, snaps[2])
}

func TestLoggerTagsSubmission(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	f := MustNew(Options[map[string]any]{
		InitialValues: map[string]any{"x": 1},
		Logger:        logger,
		IDs:           testutil.NewFixedIDGenerator("sub-9"),
		Submit: func(ctx context.Context, _ map[string]any) error {
			Logger(ctx, logger).Info("saving")
			return nil
		},
	})

	f.HandleSubmit(context.Background())
	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, "saving", hook.Entries[0].Message)
	assert.Equal(t, "sub-9", hook.Entries[0].Data["submission_id"])
}
