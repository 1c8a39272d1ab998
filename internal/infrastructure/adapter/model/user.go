package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// User represents the database model for users
type User struct {
	ID                   string    `gorm:"primaryKey;size:255" validate:"required,max=255"` // External identity id
	Email                string    `gorm:"uniqueIndex;not null;size:320" validate:"required,email,max=320"`
	AvailableGenerations int       `gorm:"not null;default:20;check:chk_users_available_non_negative,available_generations >= 0" validate:"gte=0"`
	UsedGenerations      int       `gorm:"not null;default:0;check:chk_users_used_non_negative,used_generations >= 0" validate:"gte=0"`
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// Validate checks the row before it is inserted
func (u *User) Validate() error {
	return validate.Struct(u)
}
