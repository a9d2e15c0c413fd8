package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/pgdemo/internal/errs"
	"github.com/deppfellow/pgdemo/internal/validation"
)

func TestAddOwnerLinksBothSides(t *testing.T) {
	bucket := &Thing{Name: "Bucket"}
	shahzad := &Owner{Name: "Shahzad"}

	bucket.AddOwner(shahzad)
	bucket.AddOwner(shahzad)
	shahzad.AddThing(bucket)

	require.Len(t, bucket.Owners, 1)
	require.Len(t, shahzad.Things, 1)
	assert.Same(t, shahzad, bucket.Owners[0])
	assert.Same(t, bucket, shahzad.Things[0])
}

func TestAddItemMergesSameStock(t *testing.T) {
	order := &Order{OrderDate: time.Now(), Buyer: &Customer{Email: "buyer@example.com"}}
	thor := &StockItem{Name: "Thor", Price: decimal.NewFromInt(1200)}
	topi := &StockItem{Name: "Topi", Price: decimal.NewFromInt(100)}

	first := order.AddItem(thor, 1)
	order.AddItem(topi, 2)
	again := order.AddItem(thor, 3)

	assert.Same(t, first, again)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 4, first.Quantity)
	assert.Len(t, thor.Items, 1)
	assert.Same(t, order, first.Order)
}

func TestAddItemMergesBySavedID(t *testing.T) {
	order := &Order{ID: 1}
	order.Items = []*OrderItem{{OrderID: 1, StockItemID: 7, Quantity: 1}}

	item := order.AddItem(&StockItem{ID: 7}, 2)

	assert.Len(t, order.Items, 1)
	assert.Equal(t, 3, item.Quantity)
}

func TestResolvedIDs(t *testing.T) {
	item := &OrderItem{OrderID: 1, StockItemID: 2}
	assert.EqualValues(t, 1, item.ResolvedOrderID())
	assert.EqualValues(t, 2, item.ResolvedStockItemID())

	item.Order = &Order{ID: 10}
	item.StockItem = &StockItem{ID: 20}
	assert.EqualValues(t, 10, item.ResolvedOrderID())
	assert.EqualValues(t, 20, item.ResolvedStockItemID())
}

func requireValidationError(t *testing.T, entity string, v validation.Validatable, field string) {
	t.Helper()
	err := validation.Check(entity, v)
	require.ErrorIs(t, err, errs.ErrValidation)

	var appErr *errs.Error
	require.ErrorAs(t, err, &appErr)
	fields := make([]string, 0, len(appErr.Errors))
	for _, fe := range appErr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, field)
}

func TestThingRequiresName(t *testing.T) {
	requireValidationError(t, "Thing", &Thing{}, "name")
	assert.NoError(t, (&Thing{Name: "Bucket"}).Validate())
}

func TestOrderRequiresBuyerAndDate(t *testing.T) {
	requireValidationError(t, "Order", &Order{OrderDate: time.Now()}, "buyer")
	requireValidationError(t, "Order", &Order{Buyer: &Customer{}}, "orderdate")
	assert.NoError(t, (&Order{OrderDate: time.Now(), Buyer: &Customer{Email: "buyer@example.com"}}).Validate())
	assert.NoError(t, (&Order{OrderDate: time.Now(), BuyerID: 5}).Validate())
}

func TestResolvedBuyerID(t *testing.T) {
	order := &Order{BuyerID: 5}
	assert.EqualValues(t, 5, order.ResolvedBuyerID())

	order.Buyer = &Customer{}
	assert.EqualValues(t, 5, order.ResolvedBuyerID(), "unsaved buyer keeps the stored key")

	order.Buyer.ID = 9
	assert.EqualValues(t, 9, order.ResolvedBuyerID())
}

func TestCustomerEmailFormat(t *testing.T) {
	requireValidationError(t, "Customer", &Customer{Email: "not-an-email"}, "email")
	assert.NoError(t, (&Customer{}).Validate())
}

func TestStockItemPriceNotNegative(t *testing.T) {
	requireValidationError(t, "StockItem", &StockItem{Name: "Thor", Price: decimal.NewFromInt(-1)}, "price")
	assert.NoError(t, (&StockItem{Name: "Thor", Price: decimal.Zero}).Validate())
}

func TestOrderItemRules(t *testing.T) {
	requireValidationError(t, "OrderItem", &OrderItem{OrderID: 1, StockItemID: 1}, "quantity")
	requireValidationError(t, "OrderItem", &OrderItem{StockItemID: 1, Quantity: 1}, "order")
	requireValidationError(t, "OrderItem", &OrderItem{OrderID: 1, Quantity: 1}, "stock_item")
	assert.NoError(t, (&OrderItem{Order: &Order{}, StockItem: &StockItem{}, Quantity: 1}).Validate())
}
