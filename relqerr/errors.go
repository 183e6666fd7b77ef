// Package relqerr defines the optimizer's tagged error taxonomy. Errors
// are values, not exceptional control flow: every optimizer rule returns
// an error and the orchestrator surfaces the first one unchanged, without
// wrapping it.
package relqerr

import (
	"errors"
	"fmt"
)

// Kind is a comparable error tag so callers can branch with Is (below)
// without string-matching a message.
type Kind string

const (
	// NoValidAnchor: the anchor manager found no viable candidate; the
	// query is structurally invalid.
	NoValidAnchor Kind = "no_valid_anchor"
	// InvariantViolation: a pre/post condition of a rule failed. Always a
	// bug, never user input.
	InvariantViolation Kind = "invariant_violation"
	// UnknownEntity: the metadata port has no entry for an entity name.
	UnknownEntity Kind = "unknown_entity"
	// UnknownProperty: the metadata port has no entry for a property on
	// an otherwise-known entity.
	UnknownProperty Kind = "unknown_property"
	// UnsupportedJoinKind: the AST contains a join kind other than INNER
	// or LEFT.
	UnsupportedJoinKind Kind = "unsupported_join_kind"
)

// Error wraps a Kind with the operation that produced it and, optionally,
// an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, sentinelFor(k)) match an *Error of kind k; the
// package-level Is below is built on it.
func (e *Error) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && e.Kind == Kind(k)
}

type kindSentinel Kind

// sentinelFor returns a comparable error value usable as errors.Is's
// target for a given Kind; Is(err, kind) is errors.Is(err, sentinelFor(kind)).
func sentinelFor(k Kind) error { return kindSentinel(k) }

func (k kindSentinel) Error() string { return string(k) }

// New constructs a tagged error for operation op.
func New(op string, kind Kind) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap constructs a tagged error for operation op around an existing
// cause, preserving it for errors.Unwrap/errors.As.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, sentinelFor(kind))
}

// KindOf extracts the Kind from err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
