package database

import (
	"github.com/s/coursePortal/internal/models"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Module{},
		&models.Lesson{},
		&models.Material{},
		&models.UserCourse{},
		&models.UserLessonProgress{},
		&models.BlogPost{},
		&models.UserMiniCourse{},
		&models.AuthToken{},
	)
}
