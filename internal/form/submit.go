package form

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OutcomeStatus is how a HandleSubmit call ended.
type OutcomeStatus string

const (
	// OutcomeSubmitted means the effect ran and returned nil.
	OutcomeSubmitted OutcomeStatus = "submitted"

	// OutcomeFailed means the effect returned an error (or panicked).
	// The error was logged and is carried in Outcome.Err.
	OutcomeFailed OutcomeStatus = "failed"

	// OutcomeInvalid means validation failed and the effect was not run.
	OutcomeInvalid OutcomeStatus = "invalid"

	// OutcomeNoEffect means validation passed but no effect is configured.
	OutcomeNoEffect OutcomeStatus = "no_effect"

	// OutcomeBusy means another submission was in flight.
	OutcomeBusy OutcomeStatus = "busy"

	// OutcomeDiscarded means the effect settled after Reset or Close and
	// its result did not touch the form.
	OutcomeDiscarded OutcomeStatus = "discarded"

	// OutcomeClosed means the form was closed before the call.
	OutcomeClosed OutcomeStatus = "closed"
)

// Outcome reports a HandleSubmit call. Submission failures never escape
// as errors from HandleSubmit; they are described here.
type Outcome struct {
	Status       OutcomeStatus
	SubmissionID string
	Err          error
}

// Invoked reports whether the submit effect was called.
func (o Outcome) Invoked() bool {
	switch o.Status {
	case OutcomeSubmitted, OutcomeFailed, OutcomeDiscarded:
		return true
	}
	return false
}

// IDGenerator names submissions.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 submission ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

type submissionKey struct{}

// SubmissionID returns the id of the submission whose effect received ctx.
func SubmissionID(ctx context.Context) string {
	id, _ := ctx.Value(submissionKey{}).(string)
	return id
}

// HandleSubmit runs the submission pipeline:
//
//  1. return OutcomeBusy if a submission is already in flight
//  2. validate every field; stop with OutcomeInvalid on failure
//  3. stop with OutcomeNoEffect when no Submit effect is configured
//  4. enter Submitting and call the effect with a copy of the values
//  5. return to Idle when the effect settles, whatever it returned
//
// The call blocks until the effect returns. Effect errors and panics are
// logged and reported in the Outcome; they never leave the form stuck in
// Submitting.
func (f *Form[T]) HandleSubmit(ctx context.Context) Outcome {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Outcome{Status: OutcomeClosed, Err: ErrClosed}
	}
	if f.submitting {
		f.mu.Unlock()
		f.log.Debug("submit ignored: submission in flight")
		return Outcome{Status: OutcomeBusy}
	}

	if !f.validateAllLocked() {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.notify(snap)
		f.log.WithField("errors", len(snap.Errors)).Debug("submit blocked by validation")
		return Outcome{Status: OutcomeInvalid}
	}
	if f.submit == nil {
		snap := f.snapshotLocked()
		f.mu.Unlock()
		f.notify(snap)
		return Outcome{Status: OutcomeNoEffect}
	}

	id := f.ids.Generate()
	f.epoch++
	epoch := f.epoch
	f.submitting = true

	ctx, cancel := context.WithCancel(context.WithValue(ctx, submissionKey{}, id))
	f.inflight[epoch] = cancel
	values := f.valuesLocked()
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)

	log := f.log.WithField("submission_id", id)
	log.Debug("submitting form")

	err := f.runEffect(ctx, values)
	cancel()

	f.mu.Lock()
	delete(f.inflight, epoch)
	if epoch != f.epoch {
		f.mu.Unlock()
		log.WithError(err).Debug("discarding settle of a reset or closed submission")
		return Outcome{Status: OutcomeDiscarded, SubmissionID: id, Err: err}
	}
	f.submitting = false
	snap = f.snapshotLocked()
	f.mu.Unlock()
	f.notify(snap)

	if err != nil {
		log.WithError(err).Error("form submission failed")
		return Outcome{Status: OutcomeFailed, SubmissionID: id, Err: err}
	}
	log.Info("form submitted")
	return Outcome{Status: OutcomeSubmitted, SubmissionID: id}
}

func (f *Form[T]) runEffect(ctx context.Context, values T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit effect panicked: %v", r)
		}
	}()
	return f.submit(ctx, values)
}

// Logger tags log with the submission id carried by ctx, if any.
func Logger(ctx context.Context, log logrus.FieldLogger) logrus.FieldLogger {
	if id := SubmissionID(ctx); id != "" {
		return log.WithField("submission_id", id)
	}
	return log
}
