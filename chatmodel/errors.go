// Package chatmodel provides the call context and the errors shared by the tools
package chatmodel

import "github.com/cockroachdb/errors"

// Tool input errors, returned to the caller as is.
// The other failures are reported in the tool result.
var (
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")
	ErrInvalidInput         = errors.New("invalid input")
)
