package core

import "errors"

// Common errors.
var (
	// ErrDuplicateCollection is returned when a collection name is declared
	// more than once on the same database.
	ErrDuplicateCollection = errors.New("collection declared more than once")
)
