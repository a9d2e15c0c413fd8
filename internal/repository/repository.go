// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
//
// Session is the single entry point:
//   - Reset / Migrate manage the schema
//   - Save writes an object graph as one unit of work
//   - Things, Owners, Customers, StockItems, Orders and OrderItems
//     return lazy sequences with optional eager loading
package repository

import (
	"context"
	"iter"
	"slices"

	"github.com/rs/zerolog"

	"github.com/deppfellow/pgdemo/internal/database"
)

// Session runs every database operation of a run against one pool.
type Session struct {
	db  *database.Database
	log *zerolog.Logger
}

// NewSession wraps db. The session does not own the pool; closing it is
// the caller's job.
func NewSession(db *database.Database, logger *zerolog.Logger) *Session {
	sessionLogger := logger.With().Str("component", "repository").Logger()

	return &Session{
		db:  db,
		log: &sessionLogger,
	}
}

// Reset drops and recreates every table. All stored data is lost.
func (s *Session) Reset(ctx context.Context) error {
	return s.db.Reset(ctx)
}

// Migrate applies pending migrations without dropping anything.
func (s *Session) Migrate(ctx context.Context) error {
	return s.db.Migrate(ctx)
}

// Include names a relationship to load together with the queried rows.
type Include int

const (
	// IncludeOwners loads Thing.Owners.
	IncludeOwners Include = iota + 1
	// IncludeThings loads Owner.Things.
	IncludeThings
	// IncludeBuyer loads Order.Buyer. Without it Buyer stays nil and
	// only Order.BuyerID is set.
	IncludeBuyer
	// IncludeItems loads Order.Items together with each item's StockItem.
	IncludeItems
)

func (i Include) String() string {
	switch i {
	case IncludeOwners:
		return "owners"
	case IncludeThings:
		return "things"
	case IncludeBuyer:
		return "buyer"
	case IncludeItems:
		return "items"
	default:
		return "unknown"
	}
}

func has(includes []Include, want Include) bool {
	return slices.Contains(includes, want)
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// lazy defers load until the sequence is ranged over and then yields
// its results one by one.
func lazy[T any](load func() ([]T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		items, err := load()
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}
