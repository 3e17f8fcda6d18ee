package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the stable identifier callers switch on; never parse Error() text.
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidArgument      Kind = "INVALID_ARGUMENT"
	KindInsufficientCapacity Kind = "INSUFFICIENT_CAPACITY"
	KindOverCancellation     Kind = "OVER_CANCELLATION"
	KindCapacityViolation    Kind = "CAPACITY_VIOLATION"
	KindContentionTimeout    Kind = "CONTENTION_TIMEOUT"
	KindPersistenceFailure   Kind = "PERSISTENCE_FAILURE"
)

// Sentinels for errors.Is; any *Error of the same Kind matches.
var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
	ErrInsufficientCapacity = &Error{Kind: KindInsufficientCapacity}
	ErrOverCancellation     = &Error{Kind: KindOverCancellation}
	ErrCapacityViolation    = &Error{Kind: KindCapacityViolation}
	ErrContentionTimeout    = &Error{Kind: KindContentionTimeout}
	ErrPersistenceFailure   = &Error{Kind: KindPersistenceFailure}
)

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func NewError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NotFound(op, resource string, id int64) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("%s %d not found", resource, id)}
}

func InvalidArgument(op, field, msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: fmt.Sprintf("%s: %s", field, msg)}
}

func ContentionTimeout(op string, vehicleID int64, wait time.Duration, cause error) *Error {
	return &Error{
		Kind: KindContentionTimeout,
		Op:   op,
		Msg:  fmt.Sprintf("vehicle %d is busy, lock not acquired within %s", vehicleID, wait),
		Err:  cause,
	}
}

// LockHoldExpired reports a critical section aborted because it outlived the
// time its vehicle lock is guaranteed to stay ours.
func LockHoldExpired(op string, vehicleID int64, hold time.Duration, cause error) *Error {
	return &Error{
		Kind: KindContentionTimeout,
		Op:   op,
		Msg:  fmt.Sprintf("vehicle %d lock held longer than %s, transaction rolled back", vehicleID, hold),
		Err:  cause,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsRetryable reports whether the caller may resend the same request unchanged.
func IsRetryable(err error) bool {
	return KindOf(err) == KindContentionTimeout
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
