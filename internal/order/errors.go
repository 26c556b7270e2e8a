package order

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a malformed creation or status request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProductNotFound reports a line item referencing a missing or
	// inactive product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock reports a line item asking for more units than
	// are in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition reports a status change the transition table
	// does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrRestockFailed reports a cancellation that could not reverse a
	// line item's stock decrement. The whole cancellation is rolled back.
	ErrRestockFailed = errors.New("restock failed")
)

// ItemError wraps a per-item failure so the caller knows which line item
// was at fault.
type ItemError struct {
	Index     int
	ProductID string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (product %s): %v", e.Index, e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

func itemErr(index int, productID string, err error) error {
	return &ItemError{Index: index, ProductID: productID, Err: err}
}
