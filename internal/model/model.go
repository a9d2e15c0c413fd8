// Package model defines the persisted entities and their relationships.
//
// Two relationship patterns are modelled:
//   - Thing <-> Owner: implicit many-to-many. The join table exists only
//     in the schema; in Go each side holds a slice of the other.
//   - Order <-> StockItem: explicit many-to-many through OrderItem, which
//     carries the quantity and is identified by (OrderID, StockItemID).
//
// Relationship slices and pointers are plain Go references. Keeping both
// sides consistent is the job of the Add* helpers.
package model

// Entity is anything the repository can save.
type Entity interface {
	Validate() error
}
