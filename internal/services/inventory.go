package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-shop/internal/models"
	"github.com/diewo77/go-shop/internal/store"
	"github.com/diewo77/go-shop/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DetailDraft is the input for a new order line.
type DetailDraft struct {
	CommandeID uint `json:"commande_id"`
	ProduitID  uint `json:"produit_id"`
	Quantite   int  `json:"quantite"`
}

// InventoryService keeps Product.Stock consistent with the quantities held by
// live order details. Every mutation runs in one transaction: the stock
// change, the detail write and the order total recompute commit together.
//
// Stock is only ever decremented by a conditional UPDATE (stock >= q), so two
// concurrent requests can never both take the last units. A per-product lock
// additionally serializes requests inside this process.
type InventoryService struct {
	db    *gorm.DB
	log   *zap.Logger
	locks *keyedMutex
}

func NewInventoryService(db *gorm.DB, log *zap.Logger) *InventoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InventoryService{db: db, log: log, locks: newKeyedMutex()}
}

// Create validates the draft, snapshots the product price, takes the stock and
// inserts the detail.
func (s *InventoryService) Create(ctx context.Context, d DetailDraft) (*models.OrderDetail, error) {
	v := validation.Violations{}
	validation.PositiveInt("quantite", d.Quantite, v)
	if d.ProduitID == 0 {
		v["produit_id"] = "required"
	}
	if d.CommandeID == 0 {
		v["commande_id"] = "required"
	}
	if err := invalid(v); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(orderKey(d.CommandeID), productKey(d.ProduitID))
	defer unlock()

	var detail models.OrderDetail
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, d.ProduitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ReferenceError{Field: "produit_id", ID: d.ProduitID}
			}
			return err
		}
		ok, err := store.Exists[models.Order](ctx, tx, d.CommandeID)
		if err != nil {
			return err
		}
		if !ok {
			return &ReferenceError{Field: "commande_id", ID: d.CommandeID}
		}
		if !product.InStock(d.Quantite) {
			return ErrInsufficientStock
		}
		if err := takeStock(tx, product.ID, d.Quantite); err != nil {
			return err
		}

		detail = models.OrderDetail{
			CommandeID:   d.CommandeID,
			ProduitID:    product.ID,
			Quantite:     d.Quantite,
			PrixUnitaire: product.Prix,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return fmt.Errorf("insert detail: %w", err)
		}
		return recomputeTotal(tx, d.CommandeID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("stock taken",
		zap.Uint("product_id", detail.ProduitID),
		zap.Int("delta", -detail.Quantite),
		zap.Uint("detail_id", detail.ID),
		zap.Uint("order_id", detail.CommandeID))
	return &detail, nil
}

// UpdateQuantity moves the stock by the difference between the new and the
// current quantity. The unit price is left untouched.
func (s *InventoryService) UpdateQuantity(ctx context.Context, detailID uint, quantite int) (*models.OrderDetail, error) {
	v := validation.Violations{}
	validation.PositiveInt("quantite", quantite, v)
	if err := invalid(v); err != nil {
		return nil, err
	}

	current, err := store.First[models.OrderDetail](ctx, s.db, detailID)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.Lock(orderKey(current.CommandeID), productKey(current.ProduitID))
	defer unlock()

	var detail models.OrderDetail
	var delta int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&detail, detailID).Error; err != nil {
			return store.Translate(err)
		}
		delta = quantite - detail.Quantite
		switch {
		case delta == 0:
			return nil
		case delta > 0:
			if err := takeStock(tx, detail.ProduitID, delta); err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					ok, existsErr := store.Exists[models.Product](ctx, tx, detail.ProduitID)
					if existsErr != nil {
						return existsErr
					}
					if !ok {
						return &ReferenceError{Field: "produit_id", ID: detail.ProduitID}
					}
				}
				return err
			}
		default:
			if _, err := restoreStock(tx, detail.ProduitID, -delta); err != nil {
				return err
			}
		}

		res := tx.Model(&detail).Update("quantite", quantite)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrConflict
		}
		detail.Quantite = quantite
		return recomputeTotal(tx, detail.CommandeID)
	})
	if err != nil {
		return nil, err
	}
	if delta != 0 {
		s.log.Info("stock adjusted",
			zap.Uint("product_id", detail.ProduitID),
			zap.Int("delta", -delta),
			zap.Uint("detail_id", detail.ID))
	}
	return &detail, nil
}

// Delete removes a detail and gives its quantity back to the product. A
// product that no longer exists is skipped.
func (s *InventoryService) Delete(ctx context.Context, detailID uint) error {
	current, err := store.First[models.OrderDetail](ctx, s.db, detailID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(orderKey(current.CommandeID), productKey(current.ProduitID))
	defer unlock()

	var detail models.OrderDetail
	var restored bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&detail, detailID).Error; err != nil {
			return store.Translate(err)
		}
		var err error
		if restored, err = restoreStock(tx, detail.ProduitID, detail.Quantite); err != nil {
			return err
		}
		if err := tx.Delete(&detail).Error; err != nil {
			return err
		}
		return recomputeTotal(tx, detail.CommandeID)
	})
	if err != nil {
		return err
	}
	s.logRestore(detail, restored)
	return nil
}

// DeleteOrder removes an order with all its details, restoring stock for each.
func (s *InventoryService) DeleteOrder(ctx context.Context, orderID uint) error {
	if _, err := store.First[models.Order](ctx, s.db, orderID); err != nil {
		return err
	}
	var productIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.OrderDetail{}).
		Where("commande_id = ?", orderID).
		Distinct().Pluck("produit_id", &productIDs).Error; err != nil {
		return err
	}
	keys := []string{orderKey(orderID)}
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	unlock := s.locks.Lock(keys...)
	defer unlock()

	var details []models.OrderDetail
	restored := map[uint]bool{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("commande_id = ?", orderID).Find(&details).Error; err != nil {
			return err
		}
		for _, d := range details {
			ok, err := restoreStock(tx, d.ProduitID, d.Quantite)
			if err != nil {
				return err
			}
			restored[d.ID] = ok
		}
		if err := tx.Where("commande_id = ?", orderID).Delete(&models.OrderDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, orderID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, d := range details {
		s.logRestore(d, restored[d.ID])
	}
	s.log.Info("order deleted", zap.Uint("order_id", orderID), zap.Int("details", len(details)))
	return nil
}

func (s *InventoryService) logRestore(d models.OrderDetail, restored bool) {
	if !restored {
		s.log.Warn("restock skipped, product missing",
			zap.Uint("product_id", d.ProduitID),
			zap.Uint("detail_id", d.ID))
		return
	}
	s.log.Info("stock restored",
		zap.Uint("product_id", d.ProduitID),
		zap.Int("delta", d.Quantite),
		zap.Uint("detail_id", d.ID))
}

// takeStock decrements only when enough units remain; zero affected rows
// means another writer got there first or the product is gone.
func takeStock(tx *gorm.DB, productID uint, q int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, q).
		UpdateColumn("stock", gorm.Expr("stock - ?", q))
	if res.Error != nil {
		return fmt.Errorf("take stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// restoreStock reports false when the product no longer exists.
func restoreStock(tx *gorm.DB, productID uint, q int) (bool, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", q))
	if res.Error != nil {
		return false, fmt.Errorf("restore stock: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// recomputeTotal rewrites Order.Total from its current details.
func recomputeTotal(tx *gorm.DB, orderID uint) error {
	order := models.Order{ID: orderID}
	if err := tx.Where("commande_id = ?", orderID).Find(&order.Details).Error; err != nil {
		return err
	}
	return tx.Model(&models.Order{}).Where("id = ?", orderID).
		UpdateColumn("total", order.ComputeTotal()).Error
}
