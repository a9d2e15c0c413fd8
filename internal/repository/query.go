package repository

import (
	"context"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5"

	"github.com/deppfellow/pgdemo/internal/model"
	"github.com/deppfellow/pgdemo/internal/sqlerr"
)

// Things returns every thing ordered by ID. With IncludeOwners each
// thing's owners are loaded in one additional query.
func (s *Session) Things(ctx context.Context, includes ...Include) iter.Seq2[*model.Thing, error] {
	return lazy(func() ([]*model.Thing, error) {
		things, err := s.queryThings(ctx, `SELECT id, name FROM things ORDER BY id`)
		if err != nil {
			return nil, err
		}

		if has(includes, IncludeOwners) && len(things) > 0 {
			if err := s.loadOwnersOf(ctx, things); err != nil {
				return nil, err
			}
		}

		return things, nil
	})
}

// Owners returns every owner ordered by ID. With IncludeThings each
// owner's things are loaded in one additional query.
func (s *Session) Owners(ctx context.Context, includes ...Include) iter.Seq2[*model.Owner, error] {
	return lazy(func() ([]*model.Owner, error) {
		owners, err := s.queryOwners(ctx, `SELECT id, name FROM owners ORDER BY id`)
		if err != nil {
			return nil, err
		}

		if has(includes, IncludeThings) && len(owners) > 0 {
			if err := s.loadThingsOf(ctx, owners); err != nil {
				return nil, err
			}
		}

		return owners, nil
	})
}

// Customers returns every customer ordered by ID.
func (s *Session) Customers(ctx context.Context) iter.Seq2[*model.Customer, error] {
	return lazy(func() ([]*model.Customer, error) {
		return s.queryCustomers(ctx, `SELECT id, email FROM customers ORDER BY id`)
	})
}

// StockItems returns every stock item ordered by ID.
func (s *Session) StockItems(ctx context.Context) iter.Seq2[*model.StockItem, error] {
	return lazy(func() ([]*model.StockItem, error) {
		return s.queryStockItems(ctx, `SELECT id, name, price FROM stock_items ORDER BY id`)
	})
}

// Orders returns every order ordered by ID.
//
// Order.BuyerID is always set; Order.Buyer only with IncludeBuyer. With
// IncludeItems the items and their stock items are loaded too. Each
// include costs one additional query regardless of the number of orders.
func (s *Session) Orders(ctx context.Context, includes ...Include) iter.Seq2[*model.Order, error] {
	return lazy(func() ([]*model.Order, error) {
		rows, err := s.db.Pool.Query(ctx, `SELECT id, order_date, buyer_id FROM orders ORDER BY id`)
		if err != nil {
			return nil, sqlerr.HandleError(err)
		}

		orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Order, error) {
			var o model.Order
			err := row.Scan(&o.ID, &o.OrderDate, &o.BuyerID)
			return &o, err
		})
		if err != nil {
			return nil, sqlerr.HandleError(err)
		}

		if len(orders) == 0 {
			return orders, nil
		}

		if has(includes, IncludeBuyer) {
			if err := s.loadBuyersOf(ctx, orders); err != nil {
				return nil, err
			}
		}

		if has(includes, IncludeItems) {
			if err := s.loadItemsOf(ctx, orders); err != nil {
				return nil, err
			}
		}

		return orders, nil
	})
}

// OrderItems returns every order item by (order ID, stock item ID). Only
// the keys and the quantity are set.
func (s *Session) OrderItems(ctx context.Context) iter.Seq2[*model.OrderItem, error] {
	return lazy(func() ([]*model.OrderItem, error) {
		rows, err := s.db.Pool.Query(ctx,
			`SELECT order_id, stock_item_id, quantity FROM order_items ORDER BY order_id, stock_item_id`)
		if err != nil {
			return nil, sqlerr.HandleError(err)
		}

		items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.OrderItem, error) {
			var item model.OrderItem
			err := row.Scan(&item.OrderID, &item.StockItemID, &item.Quantity)
			return &item, err
		})
		if err != nil {
			return nil, sqlerr.HandleError(err)
		}
		return items, nil
	})
}

func (s *Session) queryThings(ctx context.Context, sql string, args ...any) ([]*model.Thing, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	things, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Thing, error) {
		var t model.Thing
		err := row.Scan(&t.ID, &t.Name)
		return &t, err
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return things, nil
}

func (s *Session) queryOwners(ctx context.Context, sql string, args ...any) ([]*model.Owner, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	owners, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Owner, error) {
		var o model.Owner
		err := row.Scan(&o.ID, &o.Name)
		return &o, err
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return owners, nil
}

func (s *Session) queryCustomers(ctx context.Context, sql string, args ...any) ([]*model.Customer, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	customers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Customer, error) {
		var c model.Customer
		err := row.Scan(&c.ID, &c.Email)
		return &c, err
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return customers, nil
}

func (s *Session) queryStockItems(ctx context.Context, sql string, args ...any) ([]*model.StockItem, error) {
	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.StockItem, error) {
		var si model.StockItem
		err := row.Scan(&si.ID, &si.Name, &si.Price)
		return &si, err
	})
	if err != nil {
		return nil, sqlerr.HandleError(err)
	}
	return items, nil
}

func (s *Session) loadOwnersOf(ctx context.Context, things []*model.Thing) error {
	byID := make(map[int64]*model.Thing, len(things))
	ids := make([]int64, 0, len(things))
	for _, t := range things {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT ot.thing_id, o.id, o.name
		 FROM owner_things ot
		 JOIN owners o ON o.id = ot.owner_id
		 WHERE ot.thing_id = ANY($1)
		 ORDER BY ot.thing_id, o.id`, ids)
	if err != nil {
		return fmt.Errorf("loading owners: %w", sqlerr.HandleError(err))
	}

	ownersByID := make(map[int64]*model.Owner)
	_, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (struct{}, error) {
		var (
			thingID int64
			owner   model.Owner
		)
		if err := row.Scan(&thingID, &owner.ID, &owner.Name); err != nil {
			return struct{}{}, err
		}

		shared, ok := ownersByID[owner.ID]
		if !ok {
			shared = &owner
			ownersByID[owner.ID] = shared
		}
		byID[thingID].AddOwner(shared)
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("loading owners: %w", sqlerr.HandleError(err))
	}
	return nil
}

func (s *Session) loadThingsOf(ctx context.Context, owners []*model.Owner) error {
	byID := make(map[int64]*model.Owner, len(owners))
	ids := make([]int64, 0, len(owners))
	for _, o := range owners {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT ot.owner_id, t.id, t.name
		 FROM owner_things ot
		 JOIN things t ON t.id = ot.thing_id
		 WHERE ot.owner_id = ANY($1)
		 ORDER BY ot.owner_id, t.id`, ids)
	if err != nil {
		return fmt.Errorf("loading things: %w", sqlerr.HandleError(err))
	}

	thingsByID := make(map[int64]*model.Thing)
	_, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (struct{}, error) {
		var (
			ownerID int64
			thing   model.Thing
		)
		if err := row.Scan(&ownerID, &thing.ID, &thing.Name); err != nil {
			return struct{}{}, err
		}

		shared, ok := thingsByID[thing.ID]
		if !ok {
			shared = &thing
			thingsByID[thing.ID] = shared
		}
		byID[ownerID].AddThing(shared)
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("loading things: %w", sqlerr.HandleError(err))
	}
	return nil
}

func (s *Session) loadBuyersOf(ctx context.Context, orders []*model.Order) error {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.BuyerID)
	}

	customers, err := s.queryCustomers(ctx, `SELECT id, email FROM customers WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return fmt.Errorf("loading buyers: %w", err)
	}

	byID := make(map[int64]*model.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	for _, o := range orders {
		if c, ok := byID[o.BuyerID]; ok {
			o.Buyer = c
		}
	}
	return nil
}

func (s *Session) loadItemsOf(ctx context.Context, orders []*model.Order) error {
	byID := make(map[int64]*model.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := s.db.Pool.Query(ctx,
		`SELECT oi.order_id, oi.quantity, si.id, si.name, si.price
		 FROM order_items oi
		 JOIN stock_items si ON si.id = oi.stock_item_id
		 WHERE oi.order_id = ANY($1)
		 ORDER BY oi.order_id, si.id`, ids)
	if err != nil {
		return fmt.Errorf("loading order items: %w", sqlerr.HandleError(err))
	}

	stockByID := make(map[int64]*model.StockItem)
	_, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (struct{}, error) {
		var (
			item  model.OrderItem
			stock model.StockItem
		)
		if err := row.Scan(&item.OrderID, &item.Quantity, &stock.ID, &stock.Name, &stock.Price); err != nil {
			return struct{}{}, err
		}

		shared, ok := stockByID[stock.ID]
		if !ok {
			shared = &stock
			stockByID[stock.ID] = shared
		}

		order := byID[item.OrderID]
		item.Order = order
		item.StockItem = shared
		item.StockItemID = shared.ID

		order.Items = append(order.Items, &item)
		shared.Items = append(shared.Items, &item)
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("loading order items: %w", sqlerr.HandleError(err))
	}
	return nil
}
