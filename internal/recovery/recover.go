// Package recovery converts panics in caller-provided callbacks into
// errors. Predicate binding and schema traversal both run code supplied
// by an external engine; a panic there must not tear down the process.
package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"
)

// RecoverToError runs fn, converting a panic into a returned error.
// The panic and stack trace are logged at Error level.
func RecoverToError(logger *slog.Logger, operation string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%s panicked: %v", operation, r)
		}
	}()

	return fn()
}

// RecoverToValue runs a value-returning fn, converting a panic into a
// zero value and an error.
func RecoverToValue[T any](logger *slog.Logger, operation string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic recovered",
				"operation", operation,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			var zero T
			result = zero
			err = fmt.Errorf("%s panicked: %v", operation, r)
		}
	}()

	return fn()
}
