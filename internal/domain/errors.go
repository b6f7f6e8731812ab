// Package domain holds error types shared by the store's domain packages.
package domain

import "fmt"

// InvalidArgumentError reports a rejected input value, such as a blank
// identifier or a non-positive quantity.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Blank returns an InvalidArgumentError for a required identifier that was empty.
func Blank(field string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Reason: "must not be blank"}
}
