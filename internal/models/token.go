package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthToken — сессионный токен пользователя.
// Создаётся при входе через Google, попадает в бэкап вместе с остальными данными.
type AuthToken struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Token     string    `gorm:"uniqueIndex;size:64" json:"token"`
	UserID    string    `gorm:"size:36;index" json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t *AuthToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
