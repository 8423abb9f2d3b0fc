// Package errors provides custom error types for inventory operations.
package errors

import "errors"

// ErrProductNotFound is returned when no product has the requested ID.
var ErrProductNotFound = errors.New("product not found")
