package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSessionAvailable is surfaced when no session could be obtained.
	ErrNoSessionAvailable = errors.New("no session available")
	// ErrInvalidPayload is surfaced when the last attempt returned a body that is not JSON.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrExhaustedRetries is surfaced when every attempt hit a transient failure.
	ErrExhaustedRetries = errors.New("exhausted retries")
	// ErrUpstreamStatus is surfaced for a non-2xx JSON response unrelated to authorization.
	ErrUpstreamStatus = errors.New("upstream status")
	// ErrResponseTooLarge is surfaced when a body exceeds Config.MaxBodyBytes.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrAuthorizationExpired marks an attempt whose session stopped working.
	// It only ever appears wrapped inside ErrExhaustedRetries.
	ErrAuthorizationExpired = errors.New("authorization expired")
)

// Kind classifies a surfaced failure.
type Kind uint8

const (
	KindNoSessionAvailable Kind = iota + 1
	KindInvalidPayload
	KindExhaustedRetries
	KindUpstreamStatus
	// KindCanceled means the caller's context ended before an outcome was reached.
	KindCanceled
	KindResponseTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindNoSessionAvailable:
		return "no_session_available"
	case KindInvalidPayload:
		return "invalid_payload"
	case KindExhaustedRetries:
		return "exhausted_retries"
	case KindUpstreamStatus:
		return "upstream_status"
	case KindCanceled:
		return "canceled"
	case KindResponseTooLarge:
		return "response_too_large"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNoSessionAvailable:
		return ErrNoSessionAvailable
	case KindInvalidPayload:
		return ErrInvalidPayload
	case KindExhaustedRetries:
		return ErrExhaustedRetries
	case KindUpstreamStatus:
		return ErrUpstreamStatus
	case KindResponseTooLarge:
		return ErrResponseTooLarge
	default:
		return nil
	}
}

// Failure is the definitive result of an execution that produced no payload.
//
// errors.Is matches both the sentinel of its Kind and the underlying cause.
type Failure struct {
	Request  string
	Kind     Kind
	Status   int
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %s after %d attempt(s)", f.Request, f.Kind, f.Attempts)
	if f.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", f.Status)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := f.Kind.sentinel(); s != nil {
		out = append(out, s)
	}
	if f.Err != nil {
		out = append(out, f.Err)
	}
	return out
}

// KindOf returns the Kind of a *Failure inside err, or 0.
func KindOf(err error) Kind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}
