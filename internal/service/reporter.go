package service

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/pgdemo/internal/errs"
	"github.com/deppfellow/pgdemo/internal/repository"
)

// OrderDateLayout is how order dates are printed.
const OrderDateLayout = time.RFC3339

// Reporter prints the stored things and orders.
type Reporter struct {
	store   Reader
	console *Console
}

func NewReporter(store Reader, console *Console) *Reporter {
	return &Reporter{
		store:   store,
		console: console,
	}
}

// Report prints every thing with its first owner, then every order with
// its items.
func (r *Reporter) Report(ctx context.Context) error {
	if err := r.reportThings(ctx); err != nil {
		return err
	}
	return r.reportOrders(ctx)
}

func (r *Reporter) reportThings(ctx context.Context) error {
	if err := r.console.Op("Things...", true); err != nil {
		return err
	}

	for thing, err := range r.store.Things(ctx, repository.IncludeOwners) {
		if err != nil {
			return fmt.Errorf("querying things: %w", err)
		}

		if len(thing.Owners) == 0 {
			code := "THING_WITHOUT_OWNER"
			return errs.NewPreconditionError(fmt.Sprintf("Thing #%d has no owner", thing.ID), &code)
		}

		line := fmt.Sprintf("Thing #%d: Name = %s; Owner = %s", thing.ID, thing.Name, thing.Owners[0].Name)
		if err := r.console.Op(line, false); err != nil {
			return err
		}
	}

	return nil
}

func (r *Reporter) reportOrders(ctx context.Context) error {
	if err := r.console.Op("Orders...", true); err != nil {
		return err
	}

	for order, err := range r.store.Orders(ctx, repository.IncludeBuyer, repository.IncludeItems) {
		if err != nil {
			return fmt.Errorf("querying orders: %w", err)
		}

		if order.Buyer == nil {
			code := "ORDER_WITHOUT_BUYER"
			return errs.NewPreconditionError(fmt.Sprintf("Order #%d has no buyer loaded", order.ID), &code)
		}

		line := fmt.Sprintf("Order #%d: Buyer = %s; Date = %s",
			order.ID, order.Buyer.Email, order.OrderDate.UTC().Format(OrderDateLayout))
		if err := r.console.Op(line, false); err != nil {
			return err
		}

		for _, item := range order.Items {
			line := fmt.Sprintf("  Item #%d: Name = %s; Qty = %d",
				item.ResolvedStockItemID(), item.StockItem.Name, item.Quantity)
			if err := r.console.Op(line, false); err != nil {
				return err
			}
		}
	}

	return nil
}
