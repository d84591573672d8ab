package model

import (
	"errors"
	"time"
)

// RoleOverrideModel maps a caller email to a role, taking precedence
// over the role claim carried in the token.
type RoleOverrideModel struct {
	Email     string    `gorm:"primaryKey;type:varchar(255)"`
	Role      string    `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (RoleOverrideModel) TableName() string {
	return "role_overrides"
}

// Validate checks the override row for structural completeness.
func (rom *RoleOverrideModel) Validate() error {
	if rom.Email == "" {
		return errors.New("email is required")
	}
	if rom.Role == "" {
		return errors.New("role is required")
	}
	return nil
}
