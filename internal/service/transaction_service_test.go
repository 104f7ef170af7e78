package service

import (
	"context"
	"testing"
	"time"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/model"
	"go-retail-backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleThenDeleteRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 5}, model.SizeInput{SizeID: 2, Quantity: 3})
	require.Equal(t, 8, p.Stock)

	tx, err := f.transactions.Create(ctx, sale(p.ID, 1, 2), tester)
	require.NoError(t, err)
	require.Len(t, tx.Items, 1)
	assert.Equal(t, 3, f.quantity(p.ID, 1))
	assert.Equal(t, 6, f.stock(p.ID))
	f.requireLedgerConsistent()

	require.NoError(t, f.transactions.Delete(ctx, tx.ID, tester))
	assert.Equal(t, 5, f.quantity(p.ID, 1))
	assert.Equal(t, 8, f.stock(p.ID))
	f.requireLedgerConsistent()

	var items int64
	f.db.Model(&model.TransactionItem{}).Count(&items)
	assert.Zero(t, items)

	_, err = f.transactions.Get(ctx, tx.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestOversellRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("A", 1, model.SizeInput{SizeID: 1, Quantity: 4})
	b := f.product("B", 1, model.SizeInput{SizeID: 1, Quantity: 2})
	published := len(f.events.actions())

	in := sale(a.ID, 1, 1)
	in.Items = append(in.Items, TransactionItemInput{ProductID: b.ID, SizeID: 1, Quantity: 5, SellPrice: 100, CostPrice: 60})

	_, err := f.transactions.Create(ctx, in, tester)
	require.Error(t, err)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	assert.Equal(t, 4, f.quantity(a.ID, 1), "earlier line must be rolled back")
	assert.Equal(t, 4, f.stock(a.ID))
	assert.Equal(t, 2, f.quantity(b.ID, 1))

	var headers, items int64
	f.db.Model(&model.Transaction{}).Count(&headers)
	f.db.Model(&model.TransactionItem{}).Count(&items)
	assert.Zero(t, headers)
	assert.Zero(t, items)

	assert.Len(t, f.events.actions(), published, "nothing is broadcast for a rolled back sale")
	assert.Equal(t, 1.0, f.counter("test_insufficient_stock_total"))
}

func TestSaleOfUnknownSizeIsNotFound(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 4})

	_, err := f.transactions.Create(context.Background(), sale(p.ID, 2, 1), tester)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Equal(t, 4, f.stock(p.ID))
}

func TestSaleValidation(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 4})

	_, err := f.transactions.Create(context.Background(), TransactionInput{TotalAmount: 10}, tester)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.transactions.Create(context.Background(), sale(p.ID, 1, 0), tester)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, 4, f.stock(p.ID))
}

func TestUpdateMovesStockBetweenProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.product("A", 1, model.SizeInput{SizeID: 1, Quantity: 5})
	b := f.product("B", 1, model.SizeInput{SizeID: 2, Quantity: 5})

	tx, err := f.transactions.Create(ctx, sale(a.ID, 1, 3), tester)
	require.NoError(t, err)
	require.Equal(t, 2, f.stock(a.ID))

	in := sale(b.ID, 2, 4)
	in.Note = "swapped model"
	updated, err := f.transactions.Update(ctx, tx.ID, in, tester)
	require.NoError(t, err)

	assert.Equal(t, "swapped model", updated.Note)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, b.ID, updated.Items[0].ProductID)
	assert.Equal(t, 5, f.stock(a.ID), "product only in the old items is recomputed")
	assert.Equal(t, 1, f.stock(b.ID))
	f.requireLedgerConsistent()
}

func TestUpdateCanResellRestoredUnits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 3})

	tx, err := f.transactions.Create(ctx, sale(p.ID, 1, 3), tester)
	require.NoError(t, err)
	require.Equal(t, 0, f.stock(p.ID))

	// all 3 units come back before the new lines are taken
	_, err = f.transactions.Update(ctx, tx.ID, sale(p.ID, 1, 2), tester)
	require.NoError(t, err)
	assert.Equal(t, 1, f.stock(p.ID))
	f.requireLedgerConsistent()
}

func TestFailedUpdateKeepsOriginalSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 3})

	tx, err := f.transactions.Create(ctx, sale(p.ID, 1, 1), tester)
	require.NoError(t, err)

	_, err = f.transactions.Update(ctx, tx.ID, sale(p.ID, 1, 10), tester)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	got, err := f.transactions.Get(ctx, tx.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 1, got.Items[0].Quantity)
	assert.Equal(t, 2, f.stock(p.ID))
	f.requireLedgerConsistent()
}

func TestUpdateAndDeleteUnknownTransaction(t *testing.T) {
	f := newFixture(t)
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 3})

	_, err := f.transactions.Update(context.Background(), uuid.New(), sale(p.ID, 1, 1), tester)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = f.transactions.Delete(context.Background(), uuid.New(), tester)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 3, f.stock(p.ID))
}

func TestCommittedSaleIsBroadcastAndCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 3})

	_, err := f.transactions.Create(ctx, sale(p.ID, 1, 1), tester)
	require.NoError(t, err)

	assert.Contains(t, f.events.actions(), "transaction_created")
	assert.Equal(t, 1.0, f.counter("test_transactions_total", "operation", "create"))
}

func TestListTransactionsByDateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 3})

	_, err := f.transactions.Create(ctx, sale(p.ID, 1, 1), tester)
	require.NoError(t, err)

	all, err := f.transactions.List(ctx, rangeAroundToday(0))
	require.NoError(t, err)
	assert.Len(t, all, 1)
	require.Len(t, all[0].Items, 1)
	require.NotNil(t, all[0].Items[0].Product)
	assert.Equal(t, "P", all[0].Items[0].Product.Name)

	none, err := f.transactions.List(ctx, rangeAroundToday(-3))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func rangeAroundToday(offsetDays int) repository.DateRange {
	y, m, d := time.Now().Date()
	day := time.Date(y, m, d+offsetDays, 0, 0, 0, 0, time.Local)
	return repository.DateRange{Start: day, End: day}
}

func TestDeleteSaleAfterItsSizeWasRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 5}, model.SizeInput{SizeID: 2, Quantity: 3})

	tx, err := f.transactions.Create(ctx, sale(p.ID, 2, 2), tester)
	require.NoError(t, err)
	f.setSizes(p.ID, model.SizeInput{SizeID: 1, Quantity: 5})
	require.Equal(t, 5, f.stock(p.ID))

	require.NoError(t, f.transactions.Delete(ctx, tx.ID, tester))

	assert.Equal(t, 5, f.quantity(p.ID, 1))
	assert.Equal(t, 5, f.stock(p.ID))
	var rows int64
	f.db.Model(&model.ProductSize{}).Where("product_id = ? AND size_id = ?", p.ID, 2).Count(&rows)
	assert.Zero(t, rows, "a removed size is not recreated")
	f.requireLedgerConsistent()
	assert.Equal(t, 1, f.logs.FilterMessage("size row missing while restoring stock").Len())
}

func TestUpdateSaleAfterItsSizeWasRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product("P", 1, model.SizeInput{SizeID: 1, Quantity: 5}, model.SizeInput{SizeID: 2, Quantity: 3})

	tx, err := f.transactions.Create(ctx, sale(p.ID, 2, 2), tester)
	require.NoError(t, err)
	f.setSizes(p.ID, model.SizeInput{SizeID: 1, Quantity: 5})

	updated, err := f.transactions.Update(ctx, tx.ID, sale(p.ID, 1, 1), tester)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, uint(1), updated.Items[0].SizeID)

	assert.Equal(t, 4, f.quantity(p.ID, 1))
	assert.Equal(t, 4, f.stock(p.ID))
	f.requireLedgerConsistent()
	assert.Equal(t, 1, f.logs.FilterMessage("size row missing while restoring stock").Len())
}
