package goengine

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// FatalError marks a condition that aborts the engine outright: a rule
// violation the caller cannot recover from (non-alternating play),
// malformed configuration, or a collaborator that failed to
// initialize. Callers are expected to log and exit on receiving one.
type FatalError struct {
	msg   string
	cause error
}

func NewFatalError(msg string, cause error) *FatalError {
	return &FatalError{msg: msg, cause: cause}
}

func (e *FatalError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("goigo: fatal: %s: %v", e.msg, e.cause)
	}
	return fmt.Sprintf("goigo: fatal: %s", e.msg)
}

func (e *FatalError) Unwrap() error { return e.cause }

// RecoverableError describes a condition handled at the
// NotifyPlay/Genmove boundary rather than aborting. The engine does not
// construct one: NotifyPlay handles a failed promotion by warning and
// dropping the tree directly.
type RecoverableError struct {
	msg   string
	cause error
}

func NewRecoverableError(msg string, cause error) *RecoverableError {
	return &RecoverableError{msg: msg, cause: cause}
}

func (e *RecoverableError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("goigo: recoverable: %s: %v", e.msg, errors.WithStack(e.cause))
	}
	return fmt.Sprintf("goigo: recoverable: %s", e.msg)
}

func (e *RecoverableError) Unwrap() error { return e.cause }

// warnings accumulates soft conditions the engine observed (NotifyPlay
// adds one per failed promotion); it is never cleared between calls.
// None of them are ever returned as an error — they
// are logged and kept here only so a caller (or test) can inspect what
// happened without parsing log output.
type warnings struct {
	errs *multierror.Error
}

func (w *warnings) add(format string, args ...any) {
	w.errs = multierror.Append(w.errs, fmt.Errorf(format, args...))
}

func (w *warnings) list() []error {
	if w.errs == nil {
		return nil
	}
	return w.errs.Errors
}
