package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrProductNotFound    = fmt.Errorf("product %w", ErrNotFound)
	ErrItemNotInCart      = fmt.Errorf("cart item %w", ErrNotFound)
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidQuantity    = fmt.Errorf("%w: quantity must be > 0", ErrInvalidInput)
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductGone        = errors.New("product no longer exists")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrMissingToken       = fmt.Errorf("%w: missing token", ErrUnauthenticated)
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrDuplicateOrder     = errors.New("order already exists")
)

// ErrTotalTooLarge rejects a cart whose total does not fit in an int64.
var ErrTotalTooLarge error = &InputError{Reason: "Order total too large"}

// InputError carries a caller-facing reason for a rejected field.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalidInput(reason string) error {
	return &InputError{Reason: reason}
}

// ProductGoneError names a cart line whose product was removed from the catalog.
type ProductGoneError struct {
	ProductID string
}

func (e *ProductGoneError) Error() string {
	return fmt.Sprintf("Product %s no longer exists", e.ProductID)
}

func (e *ProductGoneError) Is(target error) bool { return target == ErrProductGone }

// InsufficientStockError names the first cart line that cannot be satisfied.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock for %s", e.ProductName)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
