package database

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/config"
	"github.com/yeremiapane/restaurant-ops/models"
)

type seedItem struct {
	category string
	name     string
	price    string
	cost     string
	prepTime int
}

var seedMenu = []seedItem{
	{"Entradas", "Empanadas", "6.50", "2.10", 10},
	{"Entradas", "Patacones", "5.00", "1.40", 8},
	{"Platos fuertes", "Bandeja Paisa", "18.90", "7.20", 25},
	{"Platos fuertes", "Ajiaco", "14.99", "5.30", 20},
	{"Platos fuertes", "Sancocho", "13.50", "4.90", 25},
	{"Bebidas", "Limonada de coco", "4.50", "1.10", 5},
	{"Bebidas", "Tinto", "2.00", "0.30", 3},
}

type seedIngredient struct {
	name  string
	unit  string
	cost  string
	stock string
	min   string
}

var seedStock = []seedIngredient{
	{"Arroz", "kg", "1.80", "40", "10"},
	{"Frijol", "kg", "2.40", "25", "8"},
	{"Plátano", "unit", "0.35", "120", "30"},
	{"Pollo", "kg", "6.90", "18", "6"},
	{"Carne molida", "kg", "8.20", "12", "5"},
	{"Coco", "unit", "1.10", "20", "6"},
}

// Seed fills an empty database with a starter menu, tables and pantry. It
// does nothing when menu categories already exist.
func Seed(db *gorm.DB, cfg config.DatabaseConfig, log *logrus.Logger) error {
	var count int64
	if err := db.Model(&models.MenuCategory{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Seed skipped, database already has data")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedAdmin(tx, cfg, log); err != nil {
			return err
		}

		categories := map[string]uint{}
		for _, it := range seedMenu {
			id, ok := categories[it.category]
			if !ok {
				cat := models.MenuCategory{Name: it.category, DisplayOrder: len(categories), IsActive: true}
				if err := tx.Create(&cat).Error; err != nil {
					return fmt.Errorf("seed category %s: %w", it.category, err)
				}
				id = cat.ID
				categories[it.category] = id
			}
			item := models.MenuItem{
				CategoryID:      &id,
				Name:            it.name,
				Price:           decimal.RequireFromString(it.price),
				Cost:            decimal.RequireFromString(it.cost),
				PreparationTime: it.prepTime,
				IsAvailable:     true,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("seed menu item %s: %w", it.name, err)
			}
		}

		zone := models.Zone{Name: "Salón principal", IsActive: true}
		if err := tx.Create(&zone).Error; err != nil {
			return err
		}
		for i, capacity := range []int{2, 2, 4, 4, 6, 8} {
			t := models.Table{Number: fmt.Sprintf("T%d", i+1), ZoneID: &zone.ID, Capacity: capacity, IsActive: true}
			if err := tx.Create(&t).Error; err != nil {
				return fmt.Errorf("seed table %s: %w", t.Number, err)
			}
		}

		for _, s := range seedStock {
			ing := models.Ingredient{
				Name:         s.name,
				Unit:         s.unit,
				CostPerUnit:  decimal.RequireFromString(s.cost),
				CurrentStock: decimal.RequireFromString(s.stock),
				MinStock:     decimal.RequireFromString(s.min),
				IsActive:     true,
			}
			if err := tx.Create(&ing).Error; err != nil {
				return fmt.Errorf("seed ingredient %s: %w", s.name, err)
			}
		}

		log.WithFields(logrus.Fields{
			"categories":  len(categories),
			"menu_items":  len(seedMenu),
			"ingredients": len(seedStock),
		}).Info("Seed completed")
		return nil
	})
}

func seedAdmin(tx *gorm.DB, cfg config.DatabaseConfig, log *logrus.Logger) error {
	if cfg.SeedAdminPassword == "" {
		log.Warn("SEED_ADMIN_PASSWORD not set, no admin user created")
		return nil
	}
	var existing models.User
	err := tx.Where("email = ?", cfg.SeedAdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{Name: "Administrator", Email: cfg.SeedAdminEmail, Password: string(hashed), Role: models.RoleAdmin}
	return tx.Create(&admin).Error
}
