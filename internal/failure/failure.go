// Package failure classifies why a sync operation against the task store did not succeed.
package failure

import (
	"errors"
	"fmt"
)

// Kind is the category of a failed operation
type Kind int

const (
	None         Kind = iota // operation succeeded
	Transport                // request rejected before a response arrived
	Status                   // store answered with a non-success HTTP status
	InvalidInput             // local input rejected before any request was made
	Decode                   // response body could not be decoded
)

// String returns a short name for the kind
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Transport:
		return "transport"
	case Status:
		return "status"
	case InvalidInput:
		return "invalid_input"
	case Decode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a typed failure carrying the operation that failed
type Error struct {
	Op         string // e.g. "create task"
	Kind       Kind
	StatusCode int    // set for Status failures
	Status     string // HTTP status text, set for Status failures
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == Status && e.Status != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Status)
	case e.Kind == Status:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind (and StatusCode when the target sets one)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// Sentinels for errors.Is checks
var (
	ErrTransport    = &Error{Kind: Transport}
	ErrStatus       = &Error{Kind: Status}
	ErrInvalidInput = &Error{Kind: InvalidInput}
	ErrDecode       = &Error{Kind: Decode}
)

// NewTransport wraps a request error
func NewTransport(op string, err error) *Error {
	return &Error{Op: op, Kind: Transport, Err: err}
}

// NewStatus records a non-success response
func NewStatus(op string, code int, status string) *Error {
	return &Error{Op: op, Kind: Status, StatusCode: code, Status: status}
}

// NewInvalidInput records rejected local input
func NewInvalidInput(op, reason string) *Error {
	return &Error{Op: op, Kind: InvalidInput, Err: errors.New(reason)}
}

// NewDecode wraps a response decoding error
func NewDecode(op string, err error) *Error {
	return &Error{Op: op, Kind: Decode, Err: err}
}

// KindOf returns the Kind of err; None for nil and Transport for untyped errors
func KindOf(err error) Kind {
	if err == nil {
		return None
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Transport
}

// StatusCode returns the HTTP status of a Status failure, or 0
func StatusCode(err error) int {
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == Status {
		return fe.StatusCode
	}
	return 0
}
