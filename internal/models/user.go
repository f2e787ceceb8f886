package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Роли пользователей
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	GoogleID string  `gorm:"index" json:"-"`
	Email    string  `gorm:"uniqueIndex;size:255" json:"email"`
	Name     *string `json:"name,omitempty"`
	Picture  string  `json:"picture"`
	Role     string  `gorm:"size:16" json:"role"` // USER / ADMIN
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
