package remote

import (
	"fmt"

	"github.com/oneconcern/yap/pkg/errors"
)

var (
	// ErrTransferFailed is returned whenever a remote operation fails
	ErrTransferFailed = errors.New("remote transfer failed")

	// ErrInvalidConfig is returned for incomplete or inconsistent remote configurations
	ErrInvalidConfig = errors.New("invalid remote configuration")
)

// Remote operations, as reported by TransferError
const (
	OpPush   = "push"
	OpPull   = "pull"
	OpDelete = "delete"
)

// TransferError tells which remote operation failed, and on which key
type TransferError struct {
	Operation string
	Key       string
	Err       error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Operation, e.Key, e.Err)
}

// Unwrap the provider error
func (e *TransferError) Unwrap() error {
	return e.Err
}

func transferFailed(op, key string, err error) error {
	return ErrTransferFailed.Wrap(&TransferError{Operation: op, Key: key, Err: err})
}
