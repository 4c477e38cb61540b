package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/slickfs/gateway/engine"
)

// Error represents an error response of the API
type Error struct {
	Code    int      `json:"code" jsonschema:"required" format:"int"`
	Message string   `json:"message" jsonschema:""`
	Details []string `json:"details" jsonschema:""`
}

// Error returns the string representation of the error
func (e Error) Error() string {
	return fmt.Sprintf("code=%d, message=%s, details=%s", e.Code, e.Message, strings.Join(e.Details, " "))
}

// Err creates a new API error with the given HTTP status code. If message is empty, the default message
// for the given code is used. If the first entry in args is a string, it is interpreted as a format string
// for the remaining entries in args, that is used for fmt.Sprintf. Otherwise the args are ignored.
func Err(code int, message string, args ...interface{}) Error {
	if len(message) == 0 {
		message = http.StatusText(code)
	}

	e := Error{
		Code:    code,
		Message: message,
		Details: []string{},
	}

	if len(args) >= 1 {
		if format, ok := args[0].(string); ok {
			e.Details = strings.Split(fmt.Sprintf(format, args[1:]...), "\n")
		}
	}

	return e
}

// FatalMessage is the message of every response with a 5xx status code.
const FatalMessage = "fatal error"

// FromEngine maps an error of the engine to an API error. Not found errors
// become 404 and invalid data errors become 400, both with the message of the
// engine. Anything else is a 500 that doesn't reveal the cause.
func FromEngine(err error) error {
	if err == nil {
		return nil
	}

	switch engine.KindOf(err) {
	case engine.KindNotFound:
		return Err(http.StatusNotFound, engine.Message(err))
	case engine.KindInvalidData:
		return Err(http.StatusBadRequest, engine.Message(err))
	}

	return Err(http.StatusInternalServerError, FatalMessage)
}
