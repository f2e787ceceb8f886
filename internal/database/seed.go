package database

import (
	"os"

	"github.com/s/coursePortal/internal/models"
	"gorm.io/gorm"
)

// Seed создаёт первого администратора, если задан ADMIN_EMAIL.
func Seed(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		return nil
	}
	return db.FirstOrCreate(&models.User{}, models.User{Email: email, Role: models.RoleAdmin}).Error
}
