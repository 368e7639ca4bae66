package model

import (
	"errors"
	"fmt"
)

// Kind classifies failures raised by the dispatch core.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in the core.
	KindUnknown Kind = iota
	// KindInvalidParameter marks a malformed plant description.
	KindInvalidParameter
	// KindInvalidInput marks a malformed price series.
	KindInvalidInput
	// KindInfeasible means no schedule satisfies the plant constraints.
	KindInfeasible
	// KindSolverFailure means the exact solver failed numerically.
	KindSolverFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindInvalidInput:
		return "invalid_input"
	case KindInfeasible:
		return "infeasible"
	case KindSolverFailure:
		return "solver_failure"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrInvalidParameter = &Error{Kind: KindInvalidParameter}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrInfeasible       = &Error{Kind: KindInfeasible}
	ErrSolverFailure    = &Error{Kind: KindSolverFailure}
)

// Error is the single error type returned by the core.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Recoverable reports whether another strategy may succeed where this one
// failed.
func Recoverable(err error) bool {
	k := KindOf(err)
	return k == KindInfeasible || k == KindSolverFailure
}
