package container

import (
	"errors"
	"fmt"
)

// ErrNotSupported reports a capability the active host has no native
// equivalent for. It is returned before any native call is made.
var ErrNotSupported = errors.New("not supported by this container")

// Unsupported returns an ErrNotSupported error naming the capability.
func Unsupported(capability string) error {
	return fmt.Errorf("%s: %w", capability, ErrNotSupported)
}

// NativeError carries a failure reported by the native host. Error returns
// the native reason unmodified.
type NativeError struct {
	Op     string
	Reason string
}

func (e *NativeError) Error() string {
	return e.Reason
}

// NewNativeError builds a NativeError for op.
func NewNativeError(op, reason string) *NativeError {
	return &NativeError{Op: op, Reason: reason}
}

// IsNative reports whether err came from the native host.
func IsNative(err error) bool {
	var ne *NativeError
	return errors.As(err, &ne)
}
