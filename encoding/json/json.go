// Package json wraps encoding/json and adds readable decoding errors.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type RawMessage = json.RawMessage

// Marshal is a wrapper for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent is a wrapper for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

// Unmarshal is a wrapper for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// NewEncoder is a wrapper for json.NewEncoder
func NewEncoder(w io.Writer) *json.Encoder {
	return json.NewEncoder(w)
}

// TypeError describes a value in the input that doesn't fit the type of
// the field it is decoded into.
type TypeError struct {
	Field     string
	Expected  string
	Line      int
	Character int
	Err       error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expect type '%s' for '%s' at line %d, character %d: %s", e.Expected, e.Field, e.Line, e.Character, e.Err)
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// FormatError takes the marshalled data and the error from Unmarshal and returns a detailed
// error message where the error was and what the error is. Type mismatches are
// returned as *TypeError.
func FormatError(input []byte, err error) error {
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		line, character, offsetError := lineAndCharacter(input, int(syntaxError.Offset))
		if offsetError != nil {
			return err
		}

		return fmt.Errorf("syntax error at line %d, character %d: %w", line, character, err)
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		line, character, offsetError := lineAndCharacter(input, int(typeError.Offset))
		if offsetError != nil {
			line, character = 0, 0
		}

		return &TypeError{
			Field:     typeError.Field,
			Expected:  typeError.Type.String(),
			Line:      line,
			Character: character,
			Err:       err,
		}
	}

	return err
}

func lineAndCharacter(input []byte, offset int) (line int, character int, err error) {
	lf := byte(0x0A)

	if offset > len(input) || offset < 0 {
		return 0, 0, fmt.Errorf("couldn't find offset %d within the input", offset)
	}

	// Humans tend to count from 1.
	line = 1

	for i, b := range input {
		if b == lf {
			line++
			character = 0
		}
		character++
		if i == offset {
			break
		}
	}

	return line, character, nil
}
