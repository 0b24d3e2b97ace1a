package services

import (
	"context"
	"strings"

	"github.com/facilidevis/facilidevis/internal/models"
	"github.com/facilidevis/facilidevis/internal/store"
	"github.com/facilidevis/facilidevis/validation"
)

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (in ClientInput) validate() error {
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.MinLen("name", in.Name, 2, v)
	validation.MaxLen("name", in.Name, 255, v)
	validation.Email("email", in.Email, v)
	validation.Phone("phone", in.Phone, v)
	validation.MaxLen("address", in.Address, 500, v)
	return v.Err()
}

type ClientService struct {
	store    store.Store
	activity *ActivityLog
}

func NewClientService(s store.Store, activity *ActivityLog) *ClientService {
	return &ClientService{store: s, activity: activity}
}

func (s *ClientService) Create(ctx context.Context, owner uint, in ClientInput) (*models.Client, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &models.Client{
		UserID:  owner,
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:   strings.ReplaceAll(in.Phone, " ", ""),
		Address: strings.TrimSpace(in.Address),
	}
	if err := s.store.Clients().Create(ctx, c); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, owner, models.ActivityClientCreated, "", c.ID, map[string]any{"name": c.Name})
	return c, nil
}

func (s *ClientService) Get(ctx context.Context, id string, owner uint) (*models.Client, error) {
	return s.store.Clients().GetByID(ctx, id, owner)
}

func (s *ClientService) List(ctx context.Context, owner uint) ([]models.Client, error) {
	return s.store.Clients().List(ctx, owner)
}

// Delete removes a client with no quotes; otherwise common.ErrInUse.
func (s *ClientService) Delete(ctx context.Context, id string, owner uint) error {
	return s.store.Clients().Delete(ctx, id, owner)
}
