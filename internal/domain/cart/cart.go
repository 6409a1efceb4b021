// Package cart holds the pure in-memory cart operations. Nothing here
// touches prices, stock, or storage: a cart is just product IDs and
// quantities, and every operation returns a new slice.
package cart

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrEmpty is returned when an operation requires a non-empty cart.
var ErrEmpty = errors.New("cart is empty")

// InvalidQuantityError indicates a line with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d is invalid for product %s", e.Quantity, e.ProductID)
}

// Line is one cart position.
type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Add returns lines with qty added to productID, merging into an existing
// line when present. Non-positive qty leaves the cart unchanged.
func Add(lines []Line, productID string, qty int) []Line {
	if qty <= 0 {
		return lines
	}
	out := clone(lines)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity += qty
			return out
		}
	}
	return append(out, Line{ProductID: productID, Quantity: qty})
}

// Remove returns lines without any line for productID.
func Remove(lines []Line, productID string) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ProductID != productID {
			out = append(out, l)
		}
	}
	return out
}

// SetQuantity returns lines with productID's quantity replaced. Zero or
// negative qty removes the line. A product not in the cart is added.
func SetQuantity(lines []Line, productID string, qty int) []Line {
	if qty <= 0 {
		return Remove(lines, productID)
	}
	out := clone(lines)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Quantity = qty
			return out
		}
	}
	return append(out, Line{ProductID: productID, Quantity: qty})
}

// Clear returns an empty cart.
func Clear([]Line) []Line {
	return nil
}

// Normalize validates lines and merges duplicates of the same product,
// preserving first-seen order. Checkout aggregates through this so a cart
// holding the same product twice is checked against stock once, with the
// summed quantity.
func Normalize(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	index := make(map[string]int, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: l.ProductID, Quantity: l.Quantity}
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// TotalQuantity returns the sum of quantities across all lines.
func TotalQuantity(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

func clone(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
