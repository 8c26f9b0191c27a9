package inventory

import (
	"errors"
	"fmt"

	"github.com/iwin-ettumanukaran/IMS/internal/record"
)

// Domain errors returned by store operations. Callers match with errors.Is;
// the menu layer maps them to user-facing messages.
var (
	// ErrInvalidInput covers empty or delimiter-tainted fields, non-positive
	// sale quantities, and negative quantities or prices.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateID is returned by Add when the product id already exists.
	ErrDuplicateID = errors.New("product id already exists")

	// ErrNotFound is returned when the product id is absent from the snapshot.
	ErrNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a deduction exceeds current stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// LedgerAppendError reports the one accepted cross-store inconsistency:
// stock was deducted and persisted, but appending the sale to the ledger
// failed. The inventory change is not rolled back; callers distinguish this
// from a clean success with errors.As and warn the user that the sale is
// missing from the sales history.
type LedgerAppendError struct {
	Event record.SaleEvent
	Err   error
}

func (e *LedgerAppendError) Error() string {
	return fmt.Sprintf("stock deducted but recording sale of %q failed: %v", e.Event.ProductID, e.Err)
}

func (e *LedgerAppendError) Unwrap() error { return e.Err }
