package storage

import (
	"errors"

	"github.com/s/coursePortal/internal/models"
	"gorm.io/gorm"
)

// SaveUser ищет пользователя по Google ID; нашли — обновляем профиль,
// не нашли — создаём с ролью USER.
func SaveUser(db *gorm.DB, userInfo models.User) (string, error) {
	var existingUser models.User

	result := db.Where("google_id = ?", userInfo.GoogleID).First(&existingUser)

	if result.Error == nil {
		updates := map[string]interface{}{
			"email":   userInfo.Email,
			"name":    userInfo.Name,
			"picture": userInfo.Picture,
			// Роль здесь не трогаем — её выдаёт админ
		}
		if err := db.Model(&existingUser).Updates(updates).Error; err != nil {
			return "", err
		}
		return existingUser.ID, nil

	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		userInfo.Role = models.RoleUser

		if err := db.Create(&userInfo).Error; err != nil {
			return "", err
		}
		return userInfo.ID, nil

	} else {
		return "", result.Error
	}
}
