package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/deppfellow/pgdemo/internal/validation"
)

// Customer places orders as their buyer.
type Customer struct {
	ID    int64
	Email string `validate:"omitempty,email"`
}

// Order belongs to exactly one buyer and holds its items. BuyerID is the
// stored key; Buyer is only set when the customer was loaded or is being
// created, and wins over BuyerID.
type Order struct {
	ID        int64
	OrderDate time.Time `validate:"required"`
	BuyerID   int64
	Buyer     *Customer    `validate:"-"`
	Items     []*OrderItem `validate:"-"`
}

// StockItem is something that can be ordered.
type StockItem struct {
	ID    int64
	Name  string
	Price decimal.Decimal `validate:"-"`
	Items []*OrderItem    `validate:"-"`
}

// OrderItem joins an Order and a StockItem. Its identity is the pair
// (OrderID, StockItemID). The pointers win over the IDs while the
// referenced rows are not saved yet.
type OrderItem struct {
	OrderID     int64
	Order       *Order `validate:"-"`
	StockItemID int64
	StockItem   *StockItem `validate:"-"`
	Quantity    int        `validate:"min=1"`
}

// AddItem adds quantity of stock to the order. If the order already has
// an item for that stock the quantity is added to it instead, so an order
// never holds two items for the same stock.
func (o *Order) AddItem(stock *StockItem, quantity int) *OrderItem {
	for _, item := range o.Items {
		if item.StockItem == stock || (stock.ID != 0 && item.ResolvedStockItemID() == stock.ID) {
			item.Quantity += quantity
			return item
		}
	}

	item := &OrderItem{
		OrderID:     o.ID,
		Order:       o,
		StockItemID: stock.ID,
		StockItem:   stock,
		Quantity:    quantity,
	}
	o.Items = append(o.Items, item)
	stock.Items = append(stock.Items, item)
	return item
}

// ResolvedBuyerID prefers the referenced Customer's ID over BuyerID.
func (o *Order) ResolvedBuyerID() int64 {
	if o.Buyer != nil && o.Buyer.ID != 0 {
		return o.Buyer.ID
	}
	return o.BuyerID
}

// ResolvedOrderID prefers the referenced Order's ID over OrderID.
func (i *OrderItem) ResolvedOrderID() int64 {
	if i.Order != nil && i.Order.ID != 0 {
		return i.Order.ID
	}
	return i.OrderID
}

// ResolvedStockItemID prefers the referenced StockItem's ID over StockItemID.
func (i *OrderItem) ResolvedStockItemID() int64 {
	if i.StockItem != nil && i.StockItem.ID != 0 {
		return i.StockItem.ID
	}
	return i.StockItemID
}

func (c *Customer) Validate() error {
	return validation.Struct(c)
}

func (o *Order) Validate() error {
	var custom validation.CustomValidationErrors
	if o.Buyer == nil && o.BuyerID == 0 {
		custom = append(custom, validation.CustomValidationError{Field: "buyer", Message: "is required"})
	}
	return validation.Join(validation.Struct(o), custom)
}

func (s *StockItem) Validate() error {
	var custom validation.CustomValidationErrors
	if s.Price.IsNegative() {
		custom = append(custom, validation.CustomValidationError{
			Field:   "price",
			Message: "must not be negative",
		})
	}
	return validation.Join(validation.Struct(s), custom)
}

func (i *OrderItem) Validate() error {
	var custom validation.CustomValidationErrors
	if i.Order == nil && i.OrderID == 0 {
		custom = append(custom, validation.CustomValidationError{Field: "order", Message: "is required"})
	}
	if i.StockItem == nil && i.StockItemID == 0 {
		custom = append(custom, validation.CustomValidationError{Field: "stock_item", Message: "is required"})
	}
	return validation.Join(validation.Struct(i), custom)
}
