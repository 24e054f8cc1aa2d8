package schema

import "github.com/cockroachdb/errors"

var errNilType = errors.New("type is required")
