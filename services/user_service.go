package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type UserService struct {
	store  *Store
	tokens *utils.TokenManager
}

func NewUserService(store *Store, tokens *utils.TokenManager) *UserService {
	return &UserService{store: store, tokens: tokens}
}

func validRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleStaff, models.RoleChef, models.RoleCashier:
		return true
	}
	return false
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !validRole(in.Role) {
		return nil, invalid("role", "must be one of admin, staff, chef, cashier")
	}
	if len(in.Password) < 8 {
		return nil, invalid("password", "must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Name:     in.Name,
		Email:    strings.ToLower(in.Email),
		Password: string(hashed),
		Role:     in.Role,
	}
	err = s.store.Tx(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: email %s is already registered", ErrConflict, user.Email)
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login checks the password and issues a signed token.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, classify(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	db, cancel := s.store.Conn(ctx)
	defer cancel()

	var users []models.User
	if err := db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, classify(err)
	}
	return users, nil
}
