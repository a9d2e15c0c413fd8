package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/deppfellow/pgdemo/internal/errs"
	"github.com/deppfellow/pgdemo/internal/model"
	"github.com/deppfellow/pgdemo/internal/sqlerr"
	"github.com/deppfellow/pgdemo/internal/validation"
)

// Save writes every entity reachable from entities in one transaction.
//
// The graph is followed through Thing.Owners, Owner.Things, Order.Buyer,
// Order.Items, OrderItem.Order, OrderItem.StockItem and StockItem.Items.
// Entities with a zero ID are inserted, the others updated. Nothing is
// written when any entity fails validation or when two order items share
// the same (order, stock item) pair. Generated IDs are copied into the
// structs only after the transaction commits.
func (s *Session) Save(ctx context.Context, entities ...model.Entity) error {
	uow := newUnitOfWork()
	for _, e := range entities {
		if err := uow.add(e); err != nil {
			return err
		}
	}

	if err := uow.validate(); err != nil {
		return err
	}

	if uow.empty() {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.db.Pool, func(tx pgx.Tx) error {
		return uow.write(ctx, tx)
	})
	if err != nil {
		return sqlerr.HandleError(err)
	}

	uow.apply()

	s.log.Debug().
		Int("things", len(uow.things)).
		Int("owners", len(uow.owners)).
		Int("customers", len(uow.customers)).
		Int("stock_items", len(uow.stockItems)).
		Int("orders", len(uow.orders)).
		Int("order_items", len(uow.orderItems)).
		Msg("saved")

	return nil
}

// unitOfWork is the flattened object graph of one Save call, in the order
// the rows have to be written.
type unitOfWork struct {
	things     []*model.Thing
	owners     []*model.Owner
	customers  []*model.Customer
	stockItems []*model.StockItem
	orders     []*model.Order
	orderItems []*model.OrderItem

	seen map[model.Entity]struct{}

	// ids holds keys generated inside the transaction until commit.
	ids map[model.Entity]int64
}

func newUnitOfWork() *unitOfWork {
	return &unitOfWork{
		seen: make(map[model.Entity]struct{}),
		ids:  make(map[model.Entity]int64),
	}
}

func (u *unitOfWork) empty() bool {
	return len(u.seen) == 0
}

// visit reports whether e is new to the walk and marks it as seen.
func (u *unitOfWork) visit(e model.Entity) bool {
	if _, ok := u.seen[e]; ok {
		return false
	}
	u.seen[e] = struct{}{}
	return true
}

func (u *unitOfWork) add(e model.Entity) error {
	switch v := e.(type) {
	case *model.Thing:
		if v == nil || !u.visit(v) {
			return nil
		}
		u.things = append(u.things, v)
		for _, o := range v.Owners {
			if err := u.add(o); err != nil {
				return err
			}
		}

	case *model.Owner:
		if v == nil || !u.visit(v) {
			return nil
		}
		u.owners = append(u.owners, v)
		for _, t := range v.Things {
			if err := u.add(t); err != nil {
				return err
			}
		}

	case *model.Customer:
		if v == nil || !u.visit(v) {
			return nil
		}
		u.customers = append(u.customers, v)

	case *model.StockItem:
		if v == nil || !u.visit(v) {
			return nil
		}
		u.stockItems = append(u.stockItems, v)
		for _, item := range v.Items {
			if err := u.add(item); err != nil {
				return err
			}
		}

	case *model.Order:
		if v == nil || !u.visit(v) {
			return nil
		}
		u.orders = append(u.orders, v)
		if v.Buyer != nil {
			if err := u.add(v.Buyer); err != nil {
				return err
			}
		}
		for _, item := range v.Items {
			if err := u.add(item); err != nil {
				return err
			}
		}

	case *model.OrderItem:
		if v == nil || !u.visit(v) {
			return nil
		}
		u.orderItems = append(u.orderItems, v)
		if v.Order != nil {
			if err := u.add(v.Order); err != nil {
				return err
			}
		}
		if v.StockItem != nil {
			if err := u.add(v.StockItem); err != nil {
				return err
			}
		}

	case nil:
		return nil

	default:
		return errs.NewInternalError(fmt.Errorf("cannot save entity of type %T", e))
	}

	return nil
}

// pairKey identifies an order item. A side that is not saved yet is
// identified by its pointer, a saved one by its ID.
type pairKey struct {
	orderID int64
	order   *model.Order
	stockID int64
	stock   *model.StockItem
}

func keyOf(item *model.OrderItem) pairKey {
	var key pairKey
	if id := item.ResolvedOrderID(); id != 0 {
		key.orderID = id
	} else {
		key.order = item.Order
	}
	if id := item.ResolvedStockItemID(); id != 0 {
		key.stockID = id
	} else {
		key.stock = item.StockItem
	}
	return key
}

func (u *unitOfWork) validate() error {
	checks := []struct {
		entity string
		values []validation.Validatable
	}{
		{"Thing", asValidatable(u.things)},
		{"Owner", asValidatable(u.owners)},
		{"Customer", asValidatable(u.customers)},
		{"StockItem", asValidatable(u.stockItems)},
		{"Order", asValidatable(u.orders)},
		{"OrderItem", asValidatable(u.orderItems)},
	}
	for _, c := range checks {
		for _, v := range c.values {
			if err := validation.Check(c.entity, v); err != nil {
				return err
			}
		}
	}

	pairs := make(map[pairKey]struct{}, len(u.orderItems))
	for _, item := range u.orderItems {
		key := keyOf(item)
		if _, dup := pairs[key]; dup {
			code := "ORDER_ITEM_DUPLICATE"
			return errs.NewConstraintError(
				"An order can hold only one item per stock item",
				&code,
				[]errs.FieldError{{Field: "stock_item", Error: "is already in this order"}},
				nil,
			)
		}
		pairs[key] = struct{}{}
	}

	return nil
}

func asValidatable[T validation.Validatable](values []T) []validation.Validatable {
	out := make([]validation.Validatable, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// idOf returns the key of e, looking at keys generated in the running
// transaction first.
func (u *unitOfWork) idOf(e model.Entity, stored int64) int64 {
	if id, ok := u.ids[e]; ok {
		return id
	}
	return stored
}

func notFound(entity string, id int64) error {
	code := errs.MakeUpperCaseWithUnderscores(entity) + "_NOT_FOUND"
	return errs.NewPreconditionError(fmt.Sprintf("%s #%d does not exist", entity, id), &code)
}

// exec runs an UPDATE and fails when it touched no row.
func exec(ctx context.Context, tx pgx.Tx, entity string, id int64, sql string, args ...any) error {
	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(entity, id)
	}
	return nil
}

func (u *unitOfWork) insert(ctx context.Context, tx pgx.Tx, e model.Entity, sql string, args ...any) error {
	var id int64
	if err := tx.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return err
	}
	u.ids[e] = id
	return nil
}

func (u *unitOfWork) write(ctx context.Context, tx pgx.Tx) error {
	for _, t := range u.things {
		var err error
		if t.ID == 0 {
			err = u.insert(ctx, tx, t, `INSERT INTO things (name) VALUES ($1) RETURNING id`, t.Name)
		} else {
			err = exec(ctx, tx, "Thing", t.ID, `UPDATE things SET name = $2 WHERE id = $1`, t.ID, t.Name)
		}
		if err != nil {
			return fmt.Errorf("saving thing %q: %w", t.Name, err)
		}
	}

	for _, o := range u.owners {
		var err error
		if o.ID == 0 {
			err = u.insert(ctx, tx, o, `INSERT INTO owners (name) VALUES ($1) RETURNING id`, o.Name)
		} else {
			err = exec(ctx, tx, "Owner", o.ID, `UPDATE owners SET name = $2 WHERE id = $1`, o.ID, o.Name)
		}
		if err != nil {
			return fmt.Errorf("saving owner %q: %w", o.Name, err)
		}
	}

	if err := u.writeOwnerThings(ctx, tx); err != nil {
		return err
	}

	for _, c := range u.customers {
		var err error
		if c.ID == 0 {
			err = u.insert(ctx, tx, c, `INSERT INTO customers (email) VALUES ($1) RETURNING id`, c.Email)
		} else {
			err = exec(ctx, tx, "Customer", c.ID, `UPDATE customers SET email = $2 WHERE id = $1`, c.ID, c.Email)
		}
		if err != nil {
			return fmt.Errorf("saving customer %q: %w", c.Email, err)
		}
	}

	for _, si := range u.stockItems {
		var err error
		if si.ID == 0 {
			err = u.insert(ctx, tx, si, `INSERT INTO stock_items (name, price) VALUES ($1, $2) RETURNING id`, si.Name, si.Price)
		} else {
			err = exec(ctx, tx, "Stock Item", si.ID, `UPDATE stock_items SET name = $2, price = $3 WHERE id = $1`, si.ID, si.Name, si.Price)
		}
		if err != nil {
			return fmt.Errorf("saving stock item %q: %w", si.Name, err)
		}
	}

	for _, o := range u.orders {
		buyerID := o.BuyerID
		if o.Buyer != nil {
			buyerID = u.idOf(o.Buyer, o.ResolvedBuyerID())
		}

		var err error
		if o.ID == 0 {
			err = u.insert(ctx, tx, o, `INSERT INTO orders (order_date, buyer_id) VALUES ($1, $2) RETURNING id`, o.OrderDate, buyerID)
		} else {
			err = exec(ctx, tx, "Order", o.ID, `UPDATE orders SET order_date = $2, buyer_id = $3 WHERE id = $1`, o.ID, o.OrderDate, buyerID)
		}
		if err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
	}

	for _, item := range u.orderItems {
		orderID, stockID := u.itemIDs(item)

		// An order created in this batch cannot have stored items yet, and
		// duplicates were rejected up front, so a plain insert suffices.
		// Items of a stored order replace the stored quantity.
		sql := `INSERT INTO order_items (order_id, stock_item_id, quantity) VALUES ($1, $2, $3)`
		if item.Order == nil || item.Order.ID != 0 {
			sql += ` ON CONFLICT (order_id, stock_item_id) DO UPDATE SET quantity = EXCLUDED.quantity`
		}

		if _, err := tx.Exec(ctx, sql, orderID, stockID, item.Quantity); err != nil {
			return fmt.Errorf("saving order item (%d, %d): %w", orderID, stockID, err)
		}
	}

	return nil
}

func (u *unitOfWork) itemIDs(item *model.OrderItem) (orderID, stockID int64) {
	orderID = item.OrderID
	if item.Order != nil {
		orderID = u.idOf(item.Order, item.Order.ID)
	}
	stockID = item.StockItemID
	if item.StockItem != nil {
		stockID = u.idOf(item.StockItem, item.StockItem.ID)
	}
	return orderID, stockID
}

type ownerThing struct {
	owner *model.Owner
	thing *model.Thing
}

// writeOwnerThings links every owner/thing pair seen from either side.
// Links that already exist are left alone.
func (u *unitOfWork) writeOwnerThings(ctx context.Context, tx pgx.Tx) error {
	links := make(map[ownerThing]struct{})
	var ordered []ownerThing
	link := func(o *model.Owner, t *model.Thing) {
		if o == nil || t == nil {
			return
		}
		key := ownerThing{owner: o, thing: t}
		if _, ok := links[key]; ok {
			return
		}
		links[key] = struct{}{}
		ordered = append(ordered, key)
	}

	for _, t := range u.things {
		for _, o := range t.Owners {
			link(o, t)
		}
	}
	for _, o := range u.owners {
		for _, t := range o.Things {
			link(o, t)
		}
	}

	if len(ordered) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, l := range ordered {
		batch.Queue(
			`INSERT INTO owner_things (owner_id, thing_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			u.idOf(l.owner, l.owner.ID),
			u.idOf(l.thing, l.thing.ID),
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("linking owners and things: %w", err)
	}
	return nil
}

// apply copies the generated keys into the structs. It runs only after
// commit so a failed Save leaves the graph untouched.
func (u *unitOfWork) apply() {
	for e, id := range u.ids {
		switch v := e.(type) {
		case *model.Thing:
			v.ID = id
		case *model.Owner:
			v.ID = id
		case *model.Customer:
			v.ID = id
		case *model.StockItem:
			v.ID = id
		case *model.Order:
			v.ID = id
		}
	}

	for _, o := range u.orders {
		o.BuyerID = o.ResolvedBuyerID()
	}
	for _, item := range u.orderItems {
		item.OrderID, item.StockItemID = item.ResolvedOrderID(), item.ResolvedStockItemID()
	}
}
