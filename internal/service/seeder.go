package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/deppfellow/pgdemo/internal/model"
)

// Seeder stores the sample data of a run.
type Seeder struct {
	store Saver
	log   *zerolog.Logger

	// now dates the seeded order.
	now func() time.Time
}

func NewSeeder(store Saver, logger *zerolog.Logger) *Seeder {
	return &Seeder{
		store: store,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Seed stores the Thing/Owner graph and then, once that is committed, the
// Order/StockItem graph.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.SeedThings(ctx); err != nil {
		return fmt.Errorf("seeding things: %w", err)
	}

	if err := s.SeedOrders(ctx); err != nil {
		return fmt.Errorf("seeding orders: %w", err)
	}

	return nil
}

// SeedThings stores Thing "Bucket" owned by Owner "Shahzad".
func (s *Seeder) SeedThings(ctx context.Context) error {
	bucket := &model.Thing{Name: "Bucket"}
	shahzad := &model.Owner{Name: "Shahzad"}
	bucket.AddOwner(shahzad)

	if err := s.store.Save(ctx, bucket); err != nil {
		return err
	}

	s.log.Debug().
		Int64("thing_id", bucket.ID).
		Int64("owner_id", shahzad.ID).
		Msg("seeded things")
	return nil
}

// SeedOrders stores one order by buyer@example.com holding one Thor and
// two Topi.
func (s *Seeder) SeedOrders(ctx context.Context) error {
	thor := &model.StockItem{Name: "Thor", Price: decimal.NewFromInt(1200)}
	topi := &model.StockItem{Name: "Topi", Price: decimal.NewFromInt(100)}
	buyer := &model.Customer{Email: "buyer@example.com"}

	order := &model.Order{
		OrderDate: s.now(),
		Buyer:     buyer,
	}
	order.AddItem(thor, 1)
	order.AddItem(topi, 2)

	if err := s.store.Save(ctx, order); err != nil {
		return err
	}

	s.log.Debug().
		Int64("order_id", order.ID).
		Int("items", len(order.Items)).
		Msg("seeded orders")
	return nil
}
