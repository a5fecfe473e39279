package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"handyconnect-server/models"
)

type AdminRepository struct {
	DB *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{DB: db}
}

// GetActiveByEmail finds an admin allowed to log in.
func (r *AdminRepository) GetActiveByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var a models.Admin
	if err := r.DB.WithContext(ctx).
		Where("email = ? AND is_active = ?", models.NormalizeEmail(email), true).
		First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// EnsureAdmin creates the admin unless one with the same email exists.
// It reports whether a row was inserted.
func (r *AdminRepository) EnsureAdmin(ctx context.Context, a *models.Admin) (bool, error) {
	var existing models.Admin
	err := r.DB.WithContext(ctx).Where("email = ?", models.NormalizeEmail(a.Email)).First(&existing).Error
	if err == nil {
		*a = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	a.IsActive = true
	if err := r.DB.WithContext(ctx).Create(a).Error; err != nil {
		return false, err
	}
	return true, nil
}
