package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrIngredientNotFound = fmt.Errorf("ingredient %w", ErrNotFound)
	ErrRecipeNotFound     = fmt.Errorf("recipe %w", ErrNotFound)
	ErrOrderNotFound      = fmt.Errorf("order %w", ErrNotFound)
	ErrReceiptNotFound    = fmt.Errorf("stock receipt %w", ErrNotFound)

	ErrInvalidInput  = errors.New("invalid input")
	ErrDuplicateCode = errors.New("code already exists")

	// ErrConcurrentUpdate means an ingredient row changed between read and
	// write. Operations retry it internally before returning it.
	ErrConcurrentUpdate = errors.New("concurrent update on ingredient balance")
)

// InsufficientStockError reports the first ingredient whose balance could
// not cover a requested debit.
type InsufficientStockError struct {
	IngredientID uint
	Available    decimal.Decimal
	Requested    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for ingredient %d: available %s, requested %s",
		e.IngredientID, e.Available.String(), e.Requested.String())
}

// IsInsufficientStock unwraps err into an *InsufficientStockError.
func IsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var target *InsufficientStockError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
