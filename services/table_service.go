package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/models"
)

type TableInput struct {
	Number   string
	ZoneID   *uint
	Capacity int
	IsActive *bool
}

type ZoneInput struct {
	Name        string
	Description string
}

type TableService struct {
	store *Store
}

func NewTableService(store *Store) *TableService {
	return &TableService{store: store}
}

func (s *TableService) CreateZone(ctx context.Context, in ZoneInput) (*models.Zone, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "is required")
	}

	zone := models.Zone{Name: in.Name, Description: in.Description, IsActive: true}
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		var dup int64
		if err := tx.Model(&models.Zone{}).Where("name = ?", in.Name).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return fmt.Errorf("%w: zone %s already exists", ErrConflict, in.Name)
		}
		return tx.Create(&zone).Error
	})
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (s *TableService) ListZones(ctx context.Context) ([]models.Zone, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var zones []models.Zone
	if err := db.Order("name ASC").Find(&zones).Error; err != nil {
		return nil, classify(err)
	}
	return zones, nil
}

// DeleteZone leaves its tables without a zone.
func (s *TableService) DeleteZone(ctx context.Context, id uint) error {
	return s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&models.Table{}).Where("zone_id = ?", id).Update("zone_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Zone{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("zone", id)
		}
		return nil
	})
}

// numberTaken enforces table numbers unique within a zone.
func numberTaken(tx *gorm.DB, number string, zoneID *uint, exceptID uint) error {
	q := tx.Model(&models.Table{}).Where("number = ? AND id <> ?", number, exceptID)
	if zoneID == nil {
		q = q.Where("zone_id IS NULL")
	} else {
		q = q.Where("zone_id = ?", *zoneID)
	}

	var n int64
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: table %s already exists in this zone", ErrConflict, number)
	}
	return nil
}

func (in TableInput) validate(tx *gorm.DB) error {
	if strings.TrimSpace(in.Number) == "" {
		return invalid("number", "is required")
	}
	if in.Capacity <= 0 {
		return invalid("capacity", "must be greater than zero")
	}
	if in.ZoneID != nil {
		if err := tx.Select("id").First(&models.Zone{}, *in.ZoneID).Error; err != nil {
			return lookupAsInvalid(err, "zone_id", "zone %d does not exist", *in.ZoneID)
		}
	}
	return nil
}

func (s *TableService) Create(ctx context.Context, in TableInput) (*models.Table, error) {
	table := models.Table{
		Number:   in.Number,
		ZoneID:   in.ZoneID,
		Capacity: in.Capacity,
		IsActive: in.IsActive == nil || *in.IsActive,
	}
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := in.validate(tx); err != nil {
			return err
		}
		if err := numberTaken(tx, in.Number, in.ZoneID, 0); err != nil {
			return err
		}
		return tx.Create(&table).Error
	})
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *TableService) Get(ctx context.Context, id uint) (*models.Table, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var table models.Table
	if err := db.First(&table, id).Error; err != nil {
		return nil, classify(lookup(err, "table", id))
	}
	return &table, nil
}

func (s *TableService) List(ctx context.Context, zoneID *uint, activeOnly bool) ([]models.Table, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.Table{}).Order("number ASC")
	if zoneID != nil {
		q = q.Where("zone_id = ?", *zoneID)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var tables []models.Table
	if err := q.Find(&tables).Error; err != nil {
		return nil, classify(err)
	}
	return tables, nil
}

func (s *TableService) Update(ctx context.Context, id uint, in TableInput) (*models.Table, error) {
	var table models.Table
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&table, id).Error; err != nil {
			return lookup(err, "table", id)
		}
		if err := in.validate(tx); err != nil {
			return err
		}
		if err := numberTaken(tx, in.Number, in.ZoneID, id); err != nil {
			return err
		}

		table.Number = in.Number
		table.ZoneID = in.ZoneID
		table.Capacity = in.Capacity
		if in.IsActive != nil {
			table.IsActive = *in.IsActive
		}
		return tx.Save(&table).Error
	})
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (s *TableService) Delete(ctx context.Context, id uint) error {
	return s.store.Tx(ctx, func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status IN ?", id, []models.OrderStatus{
				models.OrderStatusPending, models.OrderStatusPreparing, models.OrderStatusReady,
			}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: table %d has open orders", ErrConflict, id)
		}

		res := tx.Delete(&models.Table{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("table", id)
		}
		return nil
	})
}
