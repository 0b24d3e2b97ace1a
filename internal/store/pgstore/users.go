package pgstore

import (
	"context"
	"strings"
	"time"

	"github.com/facilidevis/facilidevis/internal/models"
)

type userRepo struct {
	db DBTX
}

const userColumns = `id, created_at, updated_at, email, password, role, company_name, phone`

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = models.RoleArtisan
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	err := r.db.QueryRow(ctx, `INSERT INTO users (created_at, updated_at, email, password, role, company_name, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.CreatedAt, u.UpdatedAt, u.Email, u.Password, u.Role, u.CompanyName, u.Phone).Scan(&u.ID)
	return translate("create user", err)
}

func (r *userRepo) get(ctx context.Context, op, where string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL AND `+where, arg).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Email, &u.Password, &u.Role, &u.CompanyName, &u.Phone)
	if err != nil {
		return nil, translate(op, err)
	}
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.get(ctx, "get user", "id = $1", id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "get user by email", "email = $1", strings.ToLower(strings.TrimSpace(email)))
}
