package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/events"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type StockAdjustment struct {
	IngredientID uint
	Delta        decimal.Decimal
	Reason       string
	// MovementType defaults to in/out by the sign of Delta.
	MovementType models.MovementType
	Actor        string
}

type StockResult struct {
	Ingredient models.Ingredient        `json:"ingredient"`
	Movement   models.InventoryMovement `json:"movement"`
}

type IngredientInput struct {
	Name         string
	Unit         string
	CostPerUnit  decimal.Decimal
	CurrentStock decimal.Decimal
	MinStock     decimal.Decimal
	Supplier     string
	IsActive     *bool
}

type IngredientUpdate struct {
	Name        *string
	Unit        *string
	CostPerUnit *decimal.Decimal
	MinStock    *decimal.Decimal
	Supplier    *string
	IsActive    *bool
}

type InventoryService struct {
	store  *Store
	clock  *utils.Clock
	events notifier
	log    *logrus.Logger
}

func NewInventoryService(store *Store, clock *utils.Clock, pub events.Publisher, log *logrus.Logger) *InventoryService {
	return &InventoryService{store: store, clock: clock, events: newNotifier(pub, log), log: log}
}

func resolveMovementType(delta decimal.Decimal, mt models.MovementType) (models.MovementType, error) {
	if mt == "" {
		if delta.IsNegative() {
			return models.MovementOut, nil
		}
		return models.MovementIn, nil
	}
	if !mt.Valid() {
		return "", invalid("movement_type", "must be one of in, out, adjustment, waste")
	}
	switch mt {
	case models.MovementIn:
		if delta.IsNegative() {
			return "", invalid("quantity", "an in movement needs a positive quantity")
		}
	case models.MovementOut, models.MovementWaste:
		if delta.IsPositive() {
			return "", invalid("quantity", "a %s movement needs a negative quantity", mt)
		}
	}
	return mt, nil
}

// AdjustStock applies delta, flooring the stock at zero, and appends the
// movement in the same transaction. Threshold events go out after commit.
func (s *InventoryService) AdjustStock(ctx context.Context, adj StockAdjustment) (*StockResult, error) {
	if adj.Delta.IsZero() {
		return nil, invalid("quantity", "must not be zero")
	}
	mt, err := resolveMovementType(adj.Delta, adj.MovementType)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		var (
			result StockResult
			before decimal.Decimal
		)

		err := s.store.Tx(ctx, func(tx *gorm.DB) error {
			var ing models.Ingredient
			if err := tx.First(&ing, adj.IngredientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: id %d", ErrIngredientNotFound, adj.IngredientID)
				}
				return err
			}

			before = ing.CurrentStock
			after := before.Add(adj.Delta)
			if after.IsNegative() {
				after = decimal.Zero
			}
			now := s.clock.Now().UTC()

			res := tx.Model(&models.Ingredient{}).
				Where("id = ? AND version = ?", ing.ID, ing.Version).
				Updates(map[string]interface{}{
					"current_stock": after,
					"version":       gorm.Expr("version + 1"),
					"updated_at":    now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleWrite
			}

			movement := models.InventoryMovement{
				IngredientID:      ing.ID,
				MovementType:      mt,
				Quantity:          after.Sub(before),
				RequestedQuantity: adj.Delta,
				StockAfter:        after,
				Reason:            adj.Reason,
				Actor:             adj.Actor,
				CreatedAt:         now,
			}
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}

			ing.CurrentStock = after
			ing.Version++
			ing.UpdatedAt = now
			result = StockResult{Ingredient: ing, Movement: movement}
			return nil
		})
		if errors.Is(err, errStaleWrite) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.WithFields(logrus.Fields{
			"ingredient_id": result.Ingredient.ID,
			"requested":     adj.Delta.String(),
			"applied":       result.Movement.Quantity.String(),
			"stock":         result.Ingredient.CurrentStock.String(),
		}).Info("stock adjusted")

		s.emitThresholds(ctx, result.Ingredient, before)
		return &result, nil
	}

	return nil, fmt.Errorf("%w: ingredient %d is being updated concurrently", ErrConflict, adj.IngredientID)
}

// emitThresholds fires each event at most once, and only when the
// adjustment crossed the threshold.
func (s *InventoryService) emitThresholds(ctx context.Context, ing models.Ingredient, before decimal.Decimal) {
	after := ing.CurrentStock
	data := map[string]interface{}{
		"ingredient_id": ing.ID,
		"name":          ing.Name,
		"current_stock": after.String(),
		"min_stock":     ing.MinStock.String(),
		"unit":          ing.Unit,
	}

	if !before.LessThan(ing.MinStock) && after.LessThan(ing.MinStock) {
		s.events.emit(ctx, events.Event{
			Type:    events.LowStock,
			Title:   "Low stock",
			Message: fmt.Sprintf("%s is below its minimum (%s %s left)", ing.Name, after.String(), ing.Unit),
			Data:    data,
		})
	}
	if before.IsPositive() && after.IsZero() {
		s.events.emit(ctx, events.Event{
			Type:    events.OutOfStock,
			Title:   "Out of stock",
			Message: fmt.Sprintf("%s is out of stock", ing.Name),
			Data:    data,
		})
	}
}

func (s *InventoryService) CreateIngredient(ctx context.Context, in IngredientInput, actor string) (*models.Ingredient, error) {
	if in.Name == "" {
		return nil, invalid("name", "is required")
	}
	if in.Unit == "" {
		return nil, invalid("unit", "is required")
	}
	if in.CostPerUnit.IsNegative() {
		return nil, invalid("cost_per_unit", "must not be negative")
	}
	if in.CurrentStock.IsNegative() {
		return nil, invalid("current_stock", "must not be negative")
	}
	if in.MinStock.IsNegative() {
		return nil, invalid("min_stock", "must not be negative")
	}

	ing := models.Ingredient{
		Name:         in.Name,
		Unit:         in.Unit,
		CostPerUnit:  in.CostPerUnit,
		CurrentStock: in.CurrentStock,
		MinStock:     in.MinStock,
		Supplier:     in.Supplier,
		IsActive:     in.IsActive == nil || *in.IsActive,
		Version:      1,
	}

	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&models.Ingredient{}).Where("name = ?", in.Name).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return fmt.Errorf("%w: ingredient %s already exists", ErrConflict, in.Name)
		}
		if err := tx.Create(&ing).Error; err != nil {
			return err
		}
		if !ing.CurrentStock.IsPositive() {
			return nil
		}
		// opening balance keeps the ledger summing to the stock level
		return tx.Create(&models.InventoryMovement{
			IngredientID:      ing.ID,
			MovementType:      models.MovementAdjustment,
			Quantity:          ing.CurrentStock,
			RequestedQuantity: ing.CurrentStock,
			StockAfter:        ing.CurrentStock,
			Reason:            "opening stock",
			Actor:             actor,
			CreatedAt:         s.clock.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

func (s *InventoryService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var ing models.Ingredient
	if err := db.First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrIngredientNotFound, id)
		}
		return nil, classify(err)
	}
	return &ing, nil
}

func (s *InventoryService) ListIngredients(ctx context.Context, lowStockOnly bool) ([]models.Ingredient, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var list []models.Ingredient
	if err := db.Order("name ASC").Find(&list).Error; err != nil {
		return nil, classify(err)
	}
	if !lowStockOnly {
		return list, nil
	}

	low := list[:0]
	for _, ing := range list {
		if ing.IsLow() || ing.CurrentStock.IsZero() {
			low = append(low, ing)
		}
	}
	return low, nil
}

// UpdateIngredient edits catalog fields. Stock only moves through AdjustStock.
func (s *InventoryService) UpdateIngredient(ctx context.Context, id uint, upd IngredientUpdate) (*models.Ingredient, error) {
	changes := map[string]interface{}{}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, invalid("name", "must not be empty")
		}
		changes["name"] = *upd.Name
	}
	if upd.Unit != nil {
		changes["unit"] = *upd.Unit
	}
	if upd.CostPerUnit != nil {
		if upd.CostPerUnit.IsNegative() {
			return nil, invalid("cost_per_unit", "must not be negative")
		}
		changes["cost_per_unit"] = *upd.CostPerUnit
	}
	if upd.MinStock != nil {
		if upd.MinStock.IsNegative() {
			return nil, invalid("min_stock", "must not be negative")
		}
		changes["min_stock"] = *upd.MinStock
	}
	if upd.Supplier != nil {
		changes["supplier"] = *upd.Supplier
	}
	if upd.IsActive != nil {
		changes["is_active"] = *upd.IsActive
	}

	var ing models.Ingredient
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&ing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", ErrIngredientNotFound, id)
			}
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		changes["version"] = gorm.Expr("version + 1")
		if err := tx.Model(&ing).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&ing, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

// DeleteIngredient only removes ingredients with no ledger history.
// Movements are never deleted; retire such ingredients with is_active=false.
func (s *InventoryService) DeleteIngredient(ctx context.Context, id uint) error {
	return s.store.Tx(ctx, func(tx *gorm.DB) error {
		var moves int64
		if err := tx.Model(&models.InventoryMovement{}).Where("ingredient_id = ?", id).Count(&moves).Error; err != nil {
			return err
		}
		if moves > 0 {
			return fmt.Errorf("%w: ingredient %d has %d stock movements, deactivate it instead", ErrConflict, id, moves)
		}

		res := tx.Delete(&models.Ingredient{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", ErrIngredientNotFound, id)
		}
		return nil
	})
}

// Movements returns the ledger for one ingredient, newest first.
func (s *InventoryService) Movements(ctx context.Context, ingredientID uint, limit int) ([]models.InventoryMovement, error) {
	if _, err := s.GetIngredient(ctx, ingredientID); err != nil {
		return nil, err
	}

	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Where("ingredient_id = ?", ingredientID).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var moves []models.InventoryMovement
	if err := q.Find(&moves).Error; err != nil {
		return nil, classify(err)
	}
	return moves, nil
}
