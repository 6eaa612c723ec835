package checkout

import "fmt"

// ErrorKind classifies checkout validation failures so handlers can map
// them to HTTP statuses without string matching.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindInactive
	KindInsufficientStock
)

// Error is a per-line validation failure. A single bad line fails the
// whole request.
type Error struct {
	Kind        ErrorKind
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("product %d not found", e.ProductID)
	case KindInactive:
		return fmt.Sprintf("product %q is not available", e.ProductName)
	case KindInsufficientStock:
		return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
			e.ProductName, e.Requested, e.Available)
	}
	return "checkout validation failed"
}

func NotFoundError(productID int64) *Error {
	return &Error{Kind: KindNotFound, ProductID: productID}
}

func InactiveError(productID int64, name string) *Error {
	return &Error{Kind: KindInactive, ProductID: productID, ProductName: name}
}

func StockError(productID int64, name string, requested, available int) *Error {
	return &Error{Kind: KindInsufficientStock, ProductID: productID, ProductName: name,
		Requested: requested, Available: available}
}
