package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/sync/errgroup"
)

func TestInventoryScenario(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "2.50", 10)

	first, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 4})
	require.NoError(t, err)
	assert.Equal(t, 6, stockOf(t, db, p.ID))

	_, err = svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 10})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 6, stockOf(t, db, p.ID))

	_, err = svc.UpdateQuantity(ctx, first.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, stockOf(t, db, p.ID))

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.Equal(t, 10, stockOf(t, db, p.ID))
}

func TestCreate_SnapshotsPriceAndTotals(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "19.99", 5)

	d, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 2})
	require.NoError(t, err)
	assert.True(t, d.PrixUnitaire.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, totalOf(t, db, o.ID).Equal(decimal.RequireFromString("39.98")))

	// later price changes do not touch the snapshot
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).Update("prix", decimal.RequireFromString("5.00")).Error)
	var reloaded models.OrderDetail
	require.NoError(t, db.First(&reloaded, d.ID).Error)
	assert.True(t, reloaded.PrixUnitaire.Equal(decimal.RequireFromString("19.99")))

	// quantity changes keep using the snapshot
	_, err = svc.UpdateQuantity(ctx, d.ID, 3)
	require.NoError(t, err)
	require.NoError(t, db.First(&reloaded, d.ID).Error)
	assert.True(t, reloaded.PrixUnitaire.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, totalOf(t, db, o.ID).Equal(decimal.RequireFromString("59.97")))
}

func TestCreate_Rejections(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "1.00", 3)

	t.Run("zero quantity", func(t *testing.T) {
		_, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 0})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "must_be_positive", ve.Violations["quantite"])
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: 999, Quantite: 1})
		assert.ErrorIs(t, err, ErrInvalidReference)
		var re *ReferenceError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "produit_id", re.Field)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.Create(ctx, DetailDraft{CommandeID: 999, ProduitID: p.ID, Quantite: 1})
		assert.ErrorIs(t, err, ErrInvalidReference)
		assert.Equal(t, 3, stockOf(t, db, p.ID), "failed create must not move stock")
	})

	t.Run("soft deleted product", func(t *testing.T) {
		gone := seedProduct(t, db, "1.00", 10)
		require.NoError(t, db.Delete(&gone).Error)
		_, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: gone.ID, Quantite: 1})
		assert.ErrorIs(t, err, ErrInvalidReference)
	})

	var n int64
	db.Model(&models.OrderDetail{}).Count(&n)
	assert.Zero(t, n)
}

func TestCreate_ExactStock(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "1.00", 5)

	_, err := svc.Create(context.Background(), DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, db, p.ID))
}

func TestUpdateQuantity(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "3.00", 10)
	d, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 5})
	require.NoError(t, err)
	require.Equal(t, 5, stockOf(t, db, p.ID))

	t.Run("increase within stock", func(t *testing.T) {
		got, err := svc.UpdateQuantity(ctx, d.ID, 8)
		require.NoError(t, err)
		assert.Equal(t, 8, got.Quantite)
		assert.Equal(t, 2, stockOf(t, db, p.ID))
	})

	t.Run("increase beyond stock", func(t *testing.T) {
		_, err := svc.UpdateQuantity(ctx, d.ID, 11)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 2, stockOf(t, db, p.ID))
		var reloaded models.OrderDetail
		require.NoError(t, db.First(&reloaded, d.ID).Error)
		assert.Equal(t, 8, reloaded.Quantite, "rejected update must not mutate the detail")
	})

	t.Run("same quantity is a no-op", func(t *testing.T) {
		_, err := svc.UpdateQuantity(ctx, d.ID, 8)
		require.NoError(t, err)
		assert.Equal(t, 2, stockOf(t, db, p.ID))
	})

	t.Run("decrease restores", func(t *testing.T) {
		_, err := svc.UpdateQuantity(ctx, d.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, 9, stockOf(t, db, p.ID))
		assert.True(t, totalOf(t, db, o.ID).Equal(decimal.RequireFromString("3.00")))
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := svc.UpdateQuantity(ctx, d.ID, 0)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("missing detail", func(t *testing.T) {
		_, err := svc.UpdateQuantity(ctx, 999, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateQuantity_VanishedProduct(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "3.00", 10)
	d, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 4})
	require.NoError(t, err)
	require.NoError(t, db.Delete(&p).Error)

	_, err = svc.UpdateQuantity(ctx, d.ID, 6)
	assert.ErrorIs(t, err, ErrInvalidReference)

	got, err := svc.UpdateQuantity(ctx, d.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantite)
	assert.Equal(t, 6, stockOf(t, db, p.ID), "soft-deleted product stock stays untouched")
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "4.00", 10)
	keep, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 1})
	require.NoError(t, err)
	d, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 3})
	require.NoError(t, err)
	require.Equal(t, 6, stockOf(t, db, p.ID))

	require.NoError(t, svc.Delete(ctx, d.ID))
	assert.Equal(t, 9, stockOf(t, db, p.ID))
	assert.True(t, totalOf(t, db, o.ID).Equal(decimal.RequireFromString("4.00")))

	assert.ErrorIs(t, svc.Delete(ctx, d.ID), ErrNotFound)

	// product gone: restock is skipped, the detail still goes away
	require.NoError(t, db.Delete(&p).Error)
	require.NoError(t, svc.Delete(ctx, keep.ID))
	assert.Equal(t, 9, stockOf(t, db, p.ID))
	assert.True(t, totalOf(t, db, o.ID).IsZero())
}

func TestDeleteOrder_RestocksEveryDetail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	a := seedProduct(t, db, "1.00", 10)
	b := seedProduct(t, db, "2.00", 10)
	_, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: a.ID, Quantite: 3})
	require.NoError(t, err)
	_, err = svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: b.ID, Quantite: 7})
	require.NoError(t, err)
	_, err = svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: a.ID, Quantite: 2})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, o.ID))
	assert.Equal(t, 10, stockOf(t, db, a.ID))
	assert.Equal(t, 10, stockOf(t, db, b.ID))

	var details, orders int64
	db.Model(&models.OrderDetail{}).Count(&details)
	db.Model(&models.Order{}).Count(&orders)
	assert.Zero(t, details)
	assert.Zero(t, orders)

	assert.ErrorIs(t, svc.DeleteOrder(ctx, o.ID), ErrNotFound)
}

// Stock never goes negative whatever the sequence of operations.
func TestStockNeverNegative(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "1.00", 7)

	var live []uint
	quantities := []int{3, 5, 2, 4, 1, 6, 2}
	for i, q := range quantities {
		d, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: q})
		if err == nil {
			live = append(live, d.ID)
		} else {
			require.ErrorIs(t, err, ErrInsufficientStock)
		}
		if i%2 == 1 && len(live) > 0 {
			_, err := svc.UpdateQuantity(ctx, live[0], q+1)
			if err != nil {
				require.ErrorIs(t, err, ErrInsufficientStock)
			}
		}
		if i%3 == 2 && len(live) > 0 {
			require.NoError(t, svc.Delete(ctx, live[len(live)-1]))
			live = live[:len(live)-1]
		}
		require.GreaterOrEqual(t, stockOf(t, db, p.ID), 0)
	}

	// stock plus quantities held by live details equals the starting stock
	var held int64
	db.Model(&models.OrderDetail{}).Select("COALESCE(SUM(quantite), 0)").Scan(&held)
	assert.Equal(t, 7, stockOf(t, db, p.ID)+int(held))
}

func TestConcurrentCreate_OnlyOneWins(t *testing.T) {
	db := setupTestDB(t)
	svc := NewInventoryService(db, zaptest.NewLogger(t))
	ctx := context.Background()
	c := seedClient(t, db)
	o := seedOrder(t, db, c.ID)
	p := seedProduct(t, db, "10.00", 5)

	var wins, shortages atomic.Int32
	var g errgroup.Group
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := svc.Create(ctx, DetailDraft{CommandeID: o.ID, ProduitID: p.ID, Quantite: 5})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				shortages.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(1), shortages.Load())
	assert.Equal(t, 0, stockOf(t, db, p.ID))
	assert.Zero(t, svc.locks.size(), "locks must be released")
}

// The conditional decrement alone refuses to oversell, even without the
// in-process lock.
func TestTakeStock_Conditional(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "1.00", 5)

	require.NoError(t, takeStock(db, p.ID, 5))
	assert.ErrorIs(t, takeStock(db, p.ID, 1), ErrInsufficientStock)
	assert.Equal(t, 0, stockOf(t, db, p.ID))

	ok, err := restoreStock(db, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = restoreStock(db, 999, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}
