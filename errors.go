package shopmirror

import (
	"errors"
	"fmt"

	"github.com/unkn0wn-root/shopmirror/store"
)

// Kind classifies every error returned by Core.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrInternal     = errors.New("internal error")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries the kind, the operation that failed, a user-visible message
// and, for internal failures, the cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInternal:
		return e.Kind == KindInternal
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	}
	return false
}

// Public is the message safe to show to a caller. Internal failures are
// reported generically.
func (e *Error) Public() string {
	if e.Kind == KindInternal || e.Msg == "" {
		return ErrInternal.Error()
	}
	return e.Msg
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func notFound(op, msg string) error   { return &Error{Kind: KindNotFound, Op: op, Msg: msg} }
func badRequest(op, msg string) error { return &Error{Kind: KindBadRequest, Op: op, Msg: msg} }
func unauthorized(op, msg string) error {
	return &Error{Kind: KindUnauthorized, Op: op, Msg: msg}
}
func internal(op string, err error) error { return &Error{Kind: KindInternal, Op: op, Err: err} }

// fromStore translates a store error. notFoundMsg is used for
// store.ErrNotFound; an already classified *Error passes through.
func fromStore(op string, err error, notFoundMsg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	switch {
	case errors.As(err, &e):
		return err
	case errors.Is(err, store.ErrNotFound):
		return notFound(op, notFoundMsg)
	default:
		return internal(op, err)
	}
}
