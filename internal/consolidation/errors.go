package consolidation

import (
	"errors"
	"fmt"
)

// Sentinel errors for comparison with errors.Is.
var (
	ErrEmptyName    = errors.New("cart name must not be empty")
	ErrSelfMerge    = errors.New("a cart cannot be merged into itself")
	ErrCartNotFound = errors.New("cart not found")
	ErrPersistence  = errors.New("failed to persist carts")
	ErrCancelled    = errors.New("operation cancelled")
	ErrNotConfirmed = errors.New("operation was not confirmed")
)

// CartNotFoundError reports a cart id missing from the snapshot the
// caller supplied. The snapshot is stale; refetch and retry.
type CartNotFoundError struct {
	CartID string
}

func (e *CartNotFoundError) Error() string {
	return fmt.Sprintf("cart %s not found", e.CartID)
}

func (e *CartNotFoundError) Is(target error) bool {
	return target == ErrCartNotFound
}

// PersistenceError wraps a failure of the persistence collaborator.
type PersistenceError struct {
	OrderID  string
	SourceID string
	TargetID string
	Err      error
}

func (e *PersistenceError) Error() string {
	switch {
	case e.SourceID != "" && e.TargetID != "":
		return fmt.Sprintf("persist carts for order %s (source %s, target %s): %v", e.OrderID, e.SourceID, e.TargetID, e.Err)
	case e.TargetID != "":
		return fmt.Sprintf("persist carts for order %s (cart %s): %v", e.OrderID, e.TargetID, e.Err)
	default:
		return fmt.Sprintf("persist carts for order %s: %v", e.OrderID, e.Err)
	}
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Describe turns an engine error into a single message fit for an operator.
func Describe(err error) string {
	var pErr *PersistenceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyName):
		return "Please enter a cart name."
	case errors.Is(err, ErrSelfMerge):
		return "A cart cannot be merged into itself."
	case errors.Is(err, ErrCartNotFound):
		return "Source or target cart not found. Refresh the order and try again."
	case errors.Is(err, ErrCancelled), errors.Is(err, ErrNotConfirmed):
		return "The operation was not confirmed. Nothing was changed."
	case errors.As(err, &pErr):
		return "Could not save carts: " + pErr.Err.Error()
	default:
		return err.Error()
	}
}
