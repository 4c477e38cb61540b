// Package value implements the typed configuration values. Every value points
// to a field of the configuration data and can be set from its string
// representation, e.g. from an environment variable.
package value

type Value interface {
	// String returns a string representation of the value.
	String() string

	// Set a new value for the value. Returns an
	// error if the given string representation can't
	// be transformed to the value.
	Set(string) error

	// Validate the value. The returned error will
	// indicate what is wrong with the current value.
	Validate() error

	// IsEmpty returns whether the value represents an empty
	// representation for that value.
	IsEmpty() bool
}
