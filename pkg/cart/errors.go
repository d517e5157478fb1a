package cart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a product id matches nothing: no catalog
// product on add, no cart item on update.
var ErrNotFound = errors.New("product not found")

// ErrEmptyCart blocks checkout of a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

// OutOfStockError lists every product that cannot be ordered because it is
// out of stock or gone from the catalog.
type OutOfStockError struct {
	Products []string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %s", strings.Join(e.Products, ", "))
}

// BelowMinimumError is returned when the cart subtotal is under the
// configured minimum order amount.
type BelowMinimumError struct {
	Subtotal float64
	Minimum  float64
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("order subtotal %.2f is below the minimum %.2f", e.Subtotal, e.Minimum)
}
