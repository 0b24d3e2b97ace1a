package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/facilidevis/facilidevis/internal/common"
	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
	"github.com/facilidevis/facilidevis/validation"
)

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
}

func (in RegisterInput) validate() error {
	v := validation.Violations{}
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	validation.Required("password", in.Password, v)
	validation.MinLen("password", in.Password, 6, v)
	validation.MaxLen("password", in.Password, 72, v)
	if in.CompanyName != "" {
		validation.MinLen("company_name", in.CompanyName, 2, v)
	}
	validation.Phone("phone", in.Phone, v)
	return v.Err()
}

type AccountService struct {
	store store.Store
	cost  int
}

func NewAccountService(s store.Store) *AccountService {
	return &AccountService{store: s, cost: bcrypt.DefaultCost}
}

// SetCost lowers the bcrypt cost. Intended for tests.
func (s *AccountService) SetCost(cost int) { s.cost = cost }

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Email:       in.Email,
		Password:    string(hash),
		Role:        models.RoleArtisan,
		CompanyName: strings.TrimSpace(in.CompanyName),
		Phone:       strings.ReplaceAll(in.Phone, " ", ""),
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return nil, common.NewValidationError(map[string]string{"email": "already_registered"})
		}
		return nil, err
	}
	return u, nil
}

// Authenticate returns common.ErrUnauthorized for an unknown email or a
// wrong password alike.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}
	return u, nil
}

func (s *AccountService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}
