package service

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/pgdemo/internal/errs"
	"github.com/deppfellow/pgdemo/internal/model"
	"github.com/deppfellow/pgdemo/internal/repository"
)

// memoryStore keeps saved graphs in memory and hands out sequential IDs.
type memoryStore struct {
	saves    [][]model.Entity
	things   []*model.Thing
	orders   []*model.Order
	includes [][]repository.Include
	saveErr  error
	queryErr error
	nextID   int64
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) Save(_ context.Context, entities ...model.Entity) error {
	m.saves = append(m.saves, entities)
	if m.saveErr != nil {
		return m.saveErr
	}

	for _, e := range entities {
		switch v := e.(type) {
		case *model.Thing:
			v.ID = m.id()
			for _, o := range v.Owners {
				o.ID = m.id()
			}
			m.things = append(m.things, v)
		case *model.Order:
			v.ID = m.id()
			v.Buyer.ID = m.id()
			for _, item := range v.Items {
				item.StockItem.ID = m.id()
				item.OrderID, item.StockItemID = v.ID, item.StockItem.ID
			}
			m.orders = append(m.orders, v)
		}
	}
	return nil
}

func seq[T any](items []T, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
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

func (m *memoryStore) Things(_ context.Context, includes ...repository.Include) iter.Seq2[*model.Thing, error] {
	m.includes = append(m.includes, includes)
	return seq(m.things, m.queryErr)
}

func (m *memoryStore) Orders(_ context.Context, includes ...repository.Include) iter.Seq2[*model.Order, error] {
	m.includes = append(m.includes, includes)
	return seq(m.orders, m.queryErr)
}

func (m *memoryStore) Reset(context.Context) error   { return nil }
func (m *memoryStore) Migrate(context.Context) error { return nil }

var _ Store = (*memoryStore)(nil)

var seedDate = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func newTestSeeder(store Saver) *Seeder {
	logger := zerolog.Nop()
	seeder := NewSeeder(store, &logger)
	seeder.now = func() time.Time { return seedDate }
	return seeder
}

func TestConsoleOp(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf)

	require.NoError(t, console.Op("Seeding done", false))
	require.NoError(t, console.Op("Things...", true))

	assert.Equal(t, "# Seeding done\n\n\n# Things...\n", buf.String())
}

func TestSeedSavesTwoGraphsInOrder(t *testing.T) {
	store := &memoryStore{}

	require.NoError(t, newTestSeeder(store).Seed(context.Background()))
	require.Len(t, store.saves, 2)

	require.Len(t, store.saves[0], 1)
	bucket, ok := store.saves[0][0].(*model.Thing)
	require.True(t, ok, "things are saved first")
	assert.Equal(t, "Bucket", bucket.Name)
	require.Len(t, bucket.Owners, 1)
	assert.Equal(t, "Shahzad", bucket.Owners[0].Name)
	assert.Same(t, bucket, bucket.Owners[0].Things[0])

	require.Len(t, store.saves[1], 1)
	order, ok := store.saves[1][0].(*model.Order)
	require.True(t, ok)
	assert.Equal(t, "buyer@example.com", order.Buyer.Email)
	assert.Equal(t, seedDate, order.OrderDate)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Thor", order.Items[0].StockItem.Name)
	assert.True(t, decimal.NewFromInt(1200).Equal(order.Items[0].StockItem.Price))
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, "Topi", order.Items[1].StockItem.Name)
	assert.True(t, decimal.NewFromInt(100).Equal(order.Items[1].StockItem.Price))
	assert.Equal(t, 2, order.Items[1].Quantity)
}

func TestSeedStopsAfterFailedThings(t *testing.T) {
	store := &memoryStore{saveErr: errs.NewConnectionError("down", nil)}

	err := newTestSeeder(store).Seed(context.Background())

	require.ErrorIs(t, err, errs.ErrConnection)
	assert.Contains(t, err.Error(), "seeding things")
	assert.Len(t, store.saves, 1)
}

const wantReport = `

# Things...
# Thing #1: Name = Bucket; Owner = Shahzad


# Orders...
# Order #3: Buyer = buyer@example.com; Date = 2024-03-01T12:30:00Z
#   Item #5: Name = Thor; Qty = 1
#   Item #6: Name = Topi; Qty = 2
`

func TestReportAfterSeed(t *testing.T) {
	store := &memoryStore{}
	require.NoError(t, newTestSeeder(store).Seed(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, NewReporter(store, NewConsole(&buf)).Report(context.Background()))

	assert.Equal(t, wantReport, buf.String())
	assert.Equal(t, [][]repository.Include{
		{repository.IncludeOwners},
		{repository.IncludeBuyer, repository.IncludeItems},
	}, store.includes)
}

func TestReportThingWithoutOwner(t *testing.T) {
	store := &memoryStore{things: []*model.Thing{{ID: 1, Name: "Bucket"}}}

	var buf bytes.Buffer
	err := NewReporter(store, NewConsole(&buf)).Report(context.Background())

	require.ErrorIs(t, err, errs.ErrPrecondition)
	assert.NotContains(t, buf.String(), "Orders...")
}

func TestReportQueryError(t *testing.T) {
	store := &memoryStore{queryErr: errs.NewConnectionError("down", nil)}

	err := NewReporter(store, NewConsole(&bytes.Buffer{})).Report(context.Background())

	assert.ErrorIs(t, err, errs.ErrConnection)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestReportWriteError(t *testing.T) {
	err := NewReporter(&memoryStore{}, NewConsole(failingWriter{})).Report(context.Background())

	assert.EqualError(t, err, "closed")
}

func TestReportOrderWithoutBuyer(t *testing.T) {
	store := &memoryStore{orders: []*model.Order{{ID: 3, BuyerID: 4, OrderDate: seedDate}}}

	err := NewReporter(store, NewConsole(&bytes.Buffer{})).Report(context.Background())

	assert.ErrorIs(t, err, errs.ErrPrecondition)
}
