package llm

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an extraction-backend failure for the retry policy.
type Kind int

const (
	// KindTransient covers rate limits, 5xx responses, network flakes and
	// timeouts; the orchestrator retries these with backoff.
	KindTransient Kind = iota
	// KindPermanent covers auth failures and invalid requests; retrying the
	// same call cannot succeed.
	KindPermanent
	// KindMalformed means the model answered but the payload was not the
	// requested JSON object; the orchestrator grants one corrective attempt
	// with a stricter prompt.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindMalformed:
		return "malformed"
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("llm %s: %v", e.Kind, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func Transient(err error) error { return &Error{Kind: KindTransient, Err: err} }
func Permanent(err error) error { return &Error{Kind: KindPermanent, Err: err} }
func Malformed(err error) error { return &Error{Kind: KindMalformed, Err: err} }

// IsTransient reports whether err should be retried with backoff. A deadline
// expiry counts even when the backend did not wrap it.
func IsTransient(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind == KindTransient
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsMalformed reports whether err is a malformed-output failure eligible for
// the single corrective strict attempt.
func IsMalformed(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind == KindMalformed
	}
	return false
}
