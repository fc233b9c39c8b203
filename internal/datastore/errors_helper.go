// Package datastore provides error handling helpers for database operations
package datastore

import (
	"fmt"

	"github.com/pjbaur/pota-assistant/internal/errors"
)

// dbError creates a properly categorized database error with context
func dbError(err error, operation string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Suggestion("check that the database file is writable and not locked by another process")

	// Add context pairs
	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// validationError creates a validation error with field-level detail
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}

// notFoundError creates a not-found error for operations that demand an
// existing row, with a remediation hint.
func notFoundError(message string, suggestions ...string) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Suggestion(suggestions...).
		Build()
}
