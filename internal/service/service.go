// Package service contains the business logic.
//
// It sits between the command layer and the repository layer. The
// Seeder builds the sample object graphs and saves them, the Reporter
// reads them back and renders them on the Console.
package service

import (
	"context"
	"iter"

	"github.com/deppfellow/pgdemo/internal/model"
	"github.com/deppfellow/pgdemo/internal/repository"
)

// Saver persists object graphs as one unit of work.
type Saver interface {
	Save(ctx context.Context, entities ...model.Entity) error
}

// Reader queries stored rows with optional eager loading.
type Reader interface {
	Things(ctx context.Context, includes ...repository.Include) iter.Seq2[*model.Thing, error]
	Orders(ctx context.Context, includes ...repository.Include) iter.Seq2[*model.Order, error]
}

// Store is everything a full run needs from the database.
type Store interface {
	Saver
	Reader
	Reset(ctx context.Context) error
	Migrate(ctx context.Context) error
}

var _ Store = (*repository.Session)(nil)
