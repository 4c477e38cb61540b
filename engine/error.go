package engine

import (
	"errors"
	"fmt"
)

// Kind classifies the errors of an engine.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidData
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidData:
		return "invalid data"
	}

	return "internal"
}

// Error is a classified engine error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}

	if len(e.Message) == 0 {
		return e.Err.Error()
	}

	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidData(format string, args ...interface{}) error {
	return &Error{Kind: KindInvalidData, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps err as an internal error.
func Internal(err error, format string, args ...interface{}) error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

func IsInvalidData(err error) bool {
	return err != nil && KindOf(err) == KindInvalidData
}

// Message returns the message of a classified error without the wrapped cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && len(e.Message) != 0 {
		return e.Message
	}

	return err.Error()
}
