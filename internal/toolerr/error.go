package toolerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can branch without parsing messages.
type Kind string

const (
	// KindRemoteUnavailable means the Ghostwriter API could not be reached,
	// rejected our credentials, or answered with something unusable.
	KindRemoteUnavailable Kind = "REMOTE_UNAVAILABLE"

	// KindNotFound means a referenced id does not exist remotely.
	KindNotFound Kind = "NOT_FOUND"

	// KindInvalidPayload means caller-supplied data failed validation.
	KindInvalidPayload Kind = "INVALID_PAYLOAD"

	// KindAmbiguousMatch means more than one existing record matched.
	KindAmbiguousMatch Kind = "AMBIGUOUS_MATCH"

	// KindCodenameExhausted means every codename candidate collided.
	KindCodenameExhausted Kind = "CODENAME_EXHAUSTED"

	// KindInternal is reported for errors that carry no Kind.
	KindInternal Kind = "INTERNAL"
)

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrRemoteUnavailable = &Error{Kind: KindRemoteUnavailable}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidPayload    = &Error{Kind: KindInvalidPayload}
	ErrAmbiguousMatch    = &Error{Kind: KindAmbiguousMatch}
	ErrCodenameExhausted = &Error{Kind: KindCodenameExhausted}
)

// Error is the single error type surfaced by every operation.
type Error struct {
	Kind Kind

	// Op names the operation that failed (e.g. "resolve_client").
	Op string

	Message string

	// IDs carries candidate ids for AMBIGUOUS_MATCH and the missing id for NOT_FOUND.
	IDs []int64

	Cause error
}

// New creates an Error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithIDs attaches related record ids.
func (e *Error) WithIDs(ids ...int64) *Error {
	e.IDs = append(e.IDs, ids...)
	return e
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("%s [%s]", e.Op, e.Kind))
	} else {
		parts = append(parts, string(e.Kind))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports a match on Kind only, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// RemoteUnavailable wraps a transport or protocol failure.
func RemoteUnavailable(op string, cause error) *Error {
	return New(KindRemoteUnavailable, op, "ghostwriter API unavailable").WithCause(cause)
}

// NotFound reports a missing record of the given entity kind.
func NotFound(op, entity string, id int64) *Error {
	return New(KindNotFound, op, fmt.Sprintf("%s %d not found", entity, id)).WithIDs(id)
}

// InvalidPayload reports caller data that failed validation.
func InvalidPayload(op, format string, args ...any) *Error {
	return New(KindInvalidPayload, op, fmt.Sprintf(format, args...))
}

// AmbiguousMatch reports that more than one candidate matched.
func AmbiguousMatch(op, entity string, ids []int64) *Error {
	msg := fmt.Sprintf("%d existing %s records match; pick one by id", len(ids), entity)
	return New(KindAmbiguousMatch, op, msg).WithIDs(ids...)
}

// CodenameExhausted reports that attempts candidates all collided.
func CodenameExhausted(op string, attempts int) *Error {
	return New(KindCodenameExhausted, op, fmt.Sprintf("no unused codename after %d attempts", attempts))
}

// KindOf returns the Kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

// Payload is the wire form returned to tool callers.
type Payload struct {
	Kind    Kind    `json:"kind"`
	Message string  `json:"message"`
	IDs     []int64 `json:"ids,omitempty"`
}

// PayloadOf flattens err into its wire form.
func PayloadOf(err error) Payload {
	var te *Error
	if !errors.As(err, &te) {
		return Payload{Kind: KindInternal, Message: err.Error()}
	}
	msg := te.Message
	if te.Cause != nil {
		msg += ": " + te.Cause.Error()
	}
	return Payload{Kind: te.Kind, Message: msg, IDs: te.IDs}
}
