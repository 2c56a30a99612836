package barcode

import (
	"errors"
	"fmt"
)

// ErrInput is matched by every InputError via errors.Is
var ErrInput = errors.New("barcode: invalid input")

// InputError reports a structural problem that prevents decoding the whole channel
type InputError struct {
	Op     string // Operation that rejected the input (e.g. "decode", "read channel")
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("barcode: %s: %s", e.Op, e.Reason)
}

// Unwrap lets callers test for ErrInput
func (e *InputError) Unwrap() error {
	return ErrInput
}

func inputErrorf(op, format string, args ...interface{}) error {
	return &InputError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
