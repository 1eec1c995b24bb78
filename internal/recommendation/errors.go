package recommendation

import (
	"errors"
	"fmt"
)

// Service errors.
var (
	// ErrValidation is returned when SaveSeries input is rejected.
	ErrValidation = errors.New("validation failed")

	// ErrSymbolNotSupported is returned when a query names a symbol with no stored series.
	ErrSymbolNotSupported = errors.New("symbol not supported")
)

// ValidationError describes a rejected input field.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotSupportedError reports a query for an unknown symbol.
// It matches ErrSymbolNotSupported with errors.Is.
type NotSupportedError struct {
	Symbol string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("Crypto with symbol %s is not supported currently.", e.Symbol)
}

// Is reports whether target is ErrSymbolNotSupported.
func (e *NotSupportedError) Is(target error) bool {
	return target == ErrSymbolNotSupported
}
