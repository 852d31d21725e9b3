package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"gorm.io/gorm"
)

// Kind is the closed failure taxonomy produced at the store boundary.
// Callers switch on a finite tag set instead of matching message
// substrings.
type Kind int

const (
	// KindValidation covers missing/invalid required fields, full
	// rooms and malformed ids. Never retried.
	KindValidation Kind = iota
	// KindNotFound covers lookups of ids that do not exist. Never
	// retried.
	KindNotFound
	// KindTransient covers connectivity and availability failures,
	// including permission-denied, which is deliberately treated as
	// retryable to tolerate eventually-consistent rule propagation.
	KindTransient
	// KindPermanent covers true authorization failures and malformed
	// queries. Retrying cannot fix these.
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	default:
		return "permanent"
	}
}

// Reason refines Transient/Permanent kinds for the user-facing
// message templates. It is part of the closed tag set; nothing
// outside this package inspects raw error text.
type Reason int

const (
	ReasonUnknown Reason = iota
	ReasonUnavailable
	ReasonPermissionDenied
	ReasonUnauthenticated
	ReasonOffline
	ReasonNetwork
)

// Error is the tagged union every store operation returns on failure.
type Error struct {
	Kind   Kind
	Reason Reason
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError builds a validation failure with a caller-facing
// message.
func NewValidationError(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: errors.New(msg)}
}

// NewNotFoundError builds a not-found failure for an entity id.
func NewNotFoundError(op, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("no entity with id %q", id)}
}

// KindOf extracts the failure kind, defaulting to permanent for
// untagged errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindPermanent
}

// IsTransient reports whether the resilience wrapper may retry err.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsValidation reports whether err is a caller mistake.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a missing-entity failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// Classify wraps a raw database error into the tagged union. All
// classification happens here so nothing downstream inspects driver
// error text.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}

	kind, reason := KindPermanent, ReasonUnknown
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		kind = KindNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind, reason = KindTransient, ReasonUnavailable
	case isNetworkError(err):
		kind, reason = KindTransient, ReasonOffline
	default:
		kind, reason = classifyMessage(err)
	}
	return &Error{Kind: kind, Reason: reason, Op: op, Err: err}
}

// ReasonOf extracts the refined tag, ReasonUnknown for untagged
// errors.
func ReasonOf(err error) Reason {
	var se *Error
	if errors.As(err, &se) {
		return se.Reason
	}
	return ReasonUnknown
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// classifyMessage recognizes availability-class failures the database
// driver surfaces as plain errors. This is the single place raw error
// text is inspected; everything downstream switches on the tags.
// Permission-denied is deliberately transient (see KindTransient).
func classifyMessage(err error) (Kind, Reason) {
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "unavailable", "deadline exceeded", "too many clients",
		"the database system is starting up"):
		return KindTransient, ReasonUnavailable
	case containsAny(msg, "permission denied"):
		return KindTransient, ReasonPermissionDenied
	case containsAny(msg, "connection refused", "no such host", "network is unreachable"):
		return KindTransient, ReasonOffline
	case containsAny(msg, "connection reset", "broken pipe", "i/o timeout", "bad connection"):
		return KindTransient, ReasonNetwork
	case containsAny(msg, "authentication failed", "password authentication",
		"session expired", "invalid authorization"):
		return KindPermanent, ReasonUnauthenticated
	default:
		return KindPermanent, ReasonUnknown
	}
}

func containsAny(msg string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
