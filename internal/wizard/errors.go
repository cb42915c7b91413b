package wizard

import "errors"

// ErrorKind classifies a field validation failure.
type ErrorKind int

const (
	TooShort ErrorKind = iota
	TooLong
	InvalidFormat
)

// ValidationError is a user-facing field validation failure. Msg is
// rendered once, into the draft's status line; the error never travels
// past the wizard boundary.
type ValidationError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func tooShort(msg string) *ValidationError {
	return &ValidationError{Kind: TooShort, Msg: msg}
}

func tooLong(msg string) *ValidationError {
	return &ValidationError{Kind: TooLong, Msg: msg}
}

func invalidFormat() *ValidationError {
	return &ValidationError{Kind: InvalidFormat, Msg: "Virheellinen arvo"}
}

var (
	// ErrUnknownSender means the acting identity could not be resolved.
	ErrUnknownSender = errors.New("unknown sender")

	// ErrIDRetriesExhausted means identifier generation kept colliding.
	ErrIDRetriesExhausted = errors.New("id generation retries exhausted")

	// ErrNotFound means the target activity no longer exists. Callers
	// treat this as a normal outcome (it may have just expired).
	ErrNotFound = errors.New("activity not found")

	// ErrNotAllowed means the actor may not perform the action.
	ErrNotAllowed = errors.New("not allowed")
)
