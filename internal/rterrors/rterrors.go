// Package rterrors defines the error-kind taxonomy shared across the
// agent runtime, matching the policy table in the error handling design.
package rterrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of retry/logging policy.
// These are kinds, not concrete error types: a transient network error
// and a transient 5xx both carry Kind = Transient.
type Kind string

const (
	// Transient covers network timeouts, 5xx, and 429 rate-limit
	// responses. Policy: retry with exponential backoff up to R=3,
	// honoring any retry-after hint, then abandon and record.
	Transient Kind = "transient_external"
	// Permanent covers 4xx other than 429 and invalid credentials.
	// Policy: no retry; record a credential_error memory; disable
	// trading locally if the failure was trading-related.
	Permanent Kind = "permanent_external"
	// GateDenial covers rate/cadence/trading-safety denials.
	// Policy: no retry, logged at info, the agent proceeds.
	GateDenial Kind = "gate_denial"
	// PipelineSelfDetected covers meta-confusion detection.
	// Policy: one remediation retry, then a canned fallback.
	PipelineSelfDetected Kind = "pipeline_self_detected"
	// InvariantViolation covers clamp breaches and unknown event
	// types. Policy: log at error, skip the offending item, continue.
	InvariantViolation Kind = "invariant_violation"
	// Fatal covers persistence corruption and event-queue exhaustion.
	// Policy: graceful shutdown without persisting corrupted state.
	Fatal Kind = "fatal"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// retry policy without string-matching error messages.
type Error struct {
	Kind    Kind
	Op      string
	Err     error
	Retries int
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and the operation name that observed it.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the Kind of err, defaulting to Fatal for errors that
// were never classified (an internal-invariant escape hatch: an
// unclassified error is treated conservatively).
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return Fatal
}

// Retryable reports whether policy calls for retrying an error of this
// kind at all (Transient only).
func Retryable(err error) bool {
	return KindOf(err) == Transient
}
