package market

import "fmt"

// ErrorKind classifies domain failures so the transport layer can map them
// to a response without inspecting messages.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindForbidden
	KindConflict
	KindBadRequest
)

// Error is a domain outcome, not an infrastructure failure. Infra errors are
// wrapped with %w and pass through untyped.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}
