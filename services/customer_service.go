package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/models"
)

type CustomerInput struct {
	FirstName     string
	LastName      string
	Email         *string
	Phone         *string
	LoyaltyPoints int
	IsVIP         bool
	Allergies     []string
}

type CustomerService struct {
	store *Store
}

func NewCustomerService(store *Store) *CustomerService {
	return &CustomerService{store: store}
}

func (in CustomerInput) validate() error {
	if strings.TrimSpace(in.FirstName) == "" {
		return invalid("first_name", "is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return invalid("last_name", "is required")
	}
	if in.LoyaltyPoints < 0 {
		return invalid("loyalty_points", "must not be negative")
	}
	return nil
}

func emailTaken(tx *gorm.DB, email *string, exceptID uint) error {
	if email == nil || *email == "" {
		return nil
	}
	var n int64
	if err := tx.Model(&models.Customer{}).Where("email = ? AND id <> ?", *email, exceptID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: email %s is already registered", ErrConflict, *email)
	}
	return nil
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := models.Customer{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		Phone:         in.Phone,
		LoyaltyPoints: in.LoyaltyPoints,
		IsVIP:         in.IsVIP,
		Allergies:     in.Allergies,
	}
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := emailTaken(tx, in.Email, 0); err != nil {
			return err
		}
		return tx.Create(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerService) Get(ctx context.Context, id uint) (*models.Customer, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var c models.Customer
	if err := db.First(&c, id).Error; err != nil {
		return nil, classify(lookup(err, "customer", id))
	}
	return &c, nil
}

func (s *CustomerService) List(ctx context.Context, search string, vipOnly bool) ([]models.Customer, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	q := db.Model(&models.Customer{}).Order("last_name ASC, first_name ASC")
	if vipOnly {
		q = q.Where("is_vip = ?", true)
	}
	if term := strings.TrimSpace(search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var list []models.Customer
	if err := q.Find(&list).Error; err != nil {
		return nil, classify(err)
	}
	return list, nil
}

// Update replaces the customer's editable fields.
func (s *CustomerService) Update(ctx context.Context, id uint, in CustomerInput) (*models.Customer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var c models.Customer
	err := s.store.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&c, id).Error; err != nil {
			return lookup(err, "customer", id)
		}
		if err := emailTaken(tx, in.Email, id); err != nil {
			return err
		}

		c.FirstName = in.FirstName
		c.LastName = in.LastName
		c.Email = in.Email
		c.Phone = in.Phone
		c.LoyaltyPoints = in.LoyaltyPoints
		c.IsVIP = in.IsVIP
		c.Allergies = in.Allergies
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerService) Delete(ctx context.Context, id uint) error {
	return s.store.Tx(ctx, func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Order{}).
			Where("customer_id = ? AND status IN ?", id, []models.OrderStatus{
				models.OrderStatusPending, models.OrderStatusPreparing, models.OrderStatusReady,
			}).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: customer %d has open orders", ErrConflict, id)
		}

		res := tx.Delete(&models.Customer{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return notFound("customer", id)
		}
		return nil
	})
}
