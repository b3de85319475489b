package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/models"
)

// MenuFilter narrows menu listings. Allergen keeps items whose allergen list
// names it, case-insensitively.
type MenuFilter struct {
	CategoryID    *uint
	AvailableOnly bool
	FeaturedOnly  bool
	Search        string
	Allergen      string
}

type MenuItemInput struct {
	CategoryID      *uint
	Name            string
	Description     string
	Price           decimal.Decimal
	Cost            decimal.Decimal
	PreparationTime int
	IsAvailable     *bool
	IsFeatured      bool
	ImageURL        string
	AllergenInfo    []string
	NutritionalInfo map[string]interface{}
}

type MenuItemUpdate struct {
	CategoryID      *uint
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	Cost            *decimal.Decimal
	PreparationTime *int
	IsAvailable     *bool
	IsFeatured      *bool
	ImageURL        *string
	AllergenInfo    []string
	NutritionalInfo map[string]interface{}
}

// MenuItemClone overrides fields of the item being copied. Nil fields keep
// the source value.
type MenuItemClone struct {
	CategoryID   *uint
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	AllergenInfo []string
}

// MenuCatalog is the read/write surface for menu items. The cache package
// decorates it.
type MenuCatalog interface {
	GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, f MenuFilter) ([]models.MenuItem, error)
	CreateMenuItem(ctx context.Context, in MenuItemInput) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uint, upd MenuItemUpdate) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uint) error
	ToggleAvailability(ctx context.Context, id uint) (*models.MenuItem, error)
	CloneMenuItem(ctx context.Context, sourceID uint, in MenuItemClone) (*models.MenuItem, error)
}

type MenuService struct {
	store *Store
}

var _ MenuCatalog = (*MenuService)(nil)

func NewMenuService(store *Store) *MenuService {
	return &MenuService{store: store}
}

func validatePricing(price, cost decimal.Decimal, prepTime int) error {
	if !price.IsPositive() {
		return invalid("price", "must be greater than zero")
	}
	if cost.IsNegative() {
		return invalid("cost", "must not be negative")
	}
	if prepTime < 0 {
		return invalid("preparation_time", "must not be negative")
	}
	return nil
}

func checkCategory(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	if err := tx.Select("id").First(&models.MenuCategory{}, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("category_id", "category %d does not exist", *id)
		}
		return err
	}
	return nil
}

func (s *MenuService) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var item models.MenuItem
	if err := db.First(&item, id).Error; err != nil {
		return nil, classify(lookup(err, "menu item", id))
	}
	return &item, nil
}

func (s *MenuService) ListMenuItems(ctx context.Context, f MenuFilter) ([]models.MenuItem, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.MenuItem{}).Order("name ASC")
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	if f.FeaturedOnly {
		q = q.Where("is_featured = ?", true)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var items []models.MenuItem
	if err := q.Find(&items).Error; err != nil {
		return nil, classify(err)
	}
	if allergen := strings.TrimSpace(f.Allergen); allergen != "" {
		items = withAllergen(items, allergen)
	}
	return items, nil
}

// withAllergen filters in memory; allergen_info is a JSON column and the
// supported drivers disagree on JSON array predicates.
func withAllergen(items []models.MenuItem, allergen string) []models.MenuItem {
	out := items[:0]
	for _, it := range items {
		for _, a := range it.AllergenInfo {
			if strings.EqualFold(strings.TrimSpace(a), allergen) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func (s *MenuService) CreateMenuItem(ctx context.Context, in MenuItemInput) (*models.MenuItem, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "is required")
	}
	if err := validatePricing(in.Price, in.Cost, in.PreparationTime); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		CategoryID:      in.CategoryID,
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Cost:            in.Cost,
		PreparationTime: in.PreparationTime,
		IsAvailable:     in.IsAvailable == nil || *in.IsAvailable,
		IsFeatured:      in.IsFeatured,
		ImageURL:        in.ImageURL,
		AllergenInfo:    in.AllergenInfo,
		NutritionalInfo: in.NutritionalInfo,
	}

	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := checkCategory(tx, in.CategoryID); err != nil {
			return err
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *MenuService) UpdateMenuItem(ctx context.Context, id uint, upd MenuItemUpdate) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return lookup(err, "menu item", id)
		}

		price, cost, prep := item.Price, item.Cost, item.PreparationTime
		if upd.Price != nil {
			price = *upd.Price
		}
		if upd.Cost != nil {
			cost = *upd.Cost
		}
		if upd.PreparationTime != nil {
			prep = *upd.PreparationTime
		}
		if err := validatePricing(price, cost, prep); err != nil {
			return err
		}
		if err := checkCategory(tx, upd.CategoryID); err != nil {
			return err
		}

		changes := map[string]interface{}{
			"price":            price,
			"cost":             cost,
			"preparation_time": prep,
		}
		if upd.CategoryID != nil {
			changes["category_id"] = *upd.CategoryID
		}
		if upd.Name != nil {
			if strings.TrimSpace(*upd.Name) == "" {
				return invalid("name", "must not be empty")
			}
			changes["name"] = *upd.Name
		}
		if upd.Description != nil {
			changes["description"] = *upd.Description
		}
		if upd.IsAvailable != nil {
			changes["is_available"] = *upd.IsAvailable
		}
		if upd.IsFeatured != nil {
			changes["is_featured"] = *upd.IsFeatured
		}
		if upd.ImageURL != nil {
			changes["image_url"] = *upd.ImageURL
		}
		if upd.AllergenInfo != nil {
			changes["allergen_info"] = datatypes.JSONSlice[string](upd.AllergenInfo)
		}
		if upd.NutritionalInfo != nil {
			changes["nutritional_info"] = datatypes.JSONMap(upd.NutritionalInfo)
		}

		if err := tx.Model(&item).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&item, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleAvailability flips is_available in a single statement.
func (s *MenuService) ToggleAvailability(ctx context.Context, id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.MenuItem{}).Where("id = ?", id).
			Update("is_available", gorm.Expr("NOT is_available"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("menu item", id)
		}
		return tx.First(&item, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CloneMenuItem creates a new item from an existing one, applying the
// overrides. The copy starts unavailable and not featured so it can be
// reviewed before it shows on the menu.
func (s *MenuService) CloneMenuItem(ctx context.Context, sourceID uint, in MenuItemClone) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		var src models.MenuItem
		if err := tx.First(&src, sourceID).Error; err != nil {
			return lookup(err, "menu item", sourceID)
		}

		item = models.MenuItem{
			CategoryID:      src.CategoryID,
			Name:            src.Name + " (copy)",
			Description:     src.Description,
			Price:           src.Price,
			Cost:            src.Cost,
			PreparationTime: src.PreparationTime,
			ImageURL:        src.ImageURL,
			AllergenInfo:    append(datatypes.JSONSlice[string](nil), src.AllergenInfo...),
			NutritionalInfo: copyMap(src.NutritionalInfo),
		}
		if in.CategoryID != nil {
			if err := checkCategory(tx, in.CategoryID); err != nil {
				return err
			}
			item.CategoryID = in.CategoryID
		}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return invalid("name", "must not be empty")
			}
			item.Name = *in.Name
		}
		if in.Description != nil {
			item.Description = *in.Description
		}
		if in.Price != nil {
			item.Price = *in.Price
		}
		if in.AllergenInfo != nil {
			item.AllergenInfo = in.AllergenInfo
		}
		if err := validatePricing(item.Price, item.Cost, item.PreparationTime); err != nil {
			return err
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func copyMap(m datatypes.JSONMap) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DeleteMenuItem refuses items that past orders still reference.
func (s *MenuService) DeleteMenuItem(ctx context.Context, id uint) error {
	return s.store.Tx(ctx, func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: menu item %d is referenced by %d order items, mark it unavailable instead", ErrConflict, id, refs)
		}

		res := tx.Delete(&models.MenuItem{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("menu item", id)
		}
		return nil
	})
}

type CategoryInput struct {
	Name         string
	Description  string
	DisplayOrder int
	IsActive     *bool
}

func (s *MenuService) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var cats []models.MenuCategory
	if err := db.Order("display_order ASC, name ASC").Find(&cats).Error; err != nil {
		return nil, classify(err)
	}
	return cats, nil
}

func (s *MenuService) CreateCategory(ctx context.Context, in CategoryInput) (*models.MenuCategory, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "is required")
	}

	cat := models.MenuCategory{
		Name:         in.Name,
		Description:  in.Description,
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&models.MenuCategory{}).Where("name = ?", in.Name).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return fmt.Errorf("%w: category %s already exists", ErrConflict, in.Name)
		}
		return tx.Create(&cat).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *MenuService) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*models.MenuCategory, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "is required")
	}

	var cat models.MenuCategory
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&cat, id).Error; err != nil {
			return lookup(err, "category", id)
		}
		changes := map[string]interface{}{
			"name":          in.Name,
			"description":   in.Description,
			"display_order": in.DisplayOrder,
		}
		if in.IsActive != nil {
			changes["is_active"] = *in.IsActive
		}
		if err := tx.Model(&cat).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&cat, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory detaches its items rather than deleting them.
func (s *MenuService) DeleteCategory(ctx context.Context, id uint) error {
	return s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.MenuItem{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.MenuCategory{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("category", id)
		}
		return nil
	})
}
