package repository

import (
	"context"
	"errors"

	"github.com/dutch3883/th-stray-sub000/internal/model"
	"gorm.io/gorm"
)

// RoleOverrideRepository reads and writes the email-keyed role
// override table consulted by the role resolver.
type RoleOverrideRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.RoleOverrideModel, error)
	Save(ctx context.Context, override *model.RoleOverrideModel) error
}

// roleOverrideRepository is the gorm implementation.
type roleOverrideRepository struct {
	db *gorm.DB
}

// NewRoleOverrideRepository creates the role override repository.
func NewRoleOverrideRepository(db *gorm.DB) RoleOverrideRepository {
	return &roleOverrideRepository{db: db}
}

// FindByEmail looks up an override; a missing row returns (nil, nil)
// so the resolver can fall through to the token claim.
func (r *roleOverrideRepository) FindByEmail(ctx context.Context, email string) (*model.RoleOverrideModel, error) {
	var row model.RoleOverrideModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Save upserts an override row.
func (r *roleOverrideRepository) Save(ctx context.Context, override *model.RoleOverrideModel) error {
	if err := override.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(override).Error
}
