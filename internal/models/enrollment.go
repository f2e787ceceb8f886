package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserCourse (Запись на курс)
type UserCourse struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   string `gorm:"size:36;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID string `gorm:"size:36;uniqueIndex:idx_user_course" json:"course_id"`
	// Прогресс прохождения курса, 0-100
	Progress  int  `json:"progress"`
	Completed bool `json:"completed"`
}

// UserLessonProgress — отметка о прохождении урока
type UserLessonProgress struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID    string `gorm:"size:36;uniqueIndex:idx_user_lesson" json:"user_id"`
	LessonID  string `gorm:"size:36;uniqueIndex:idx_user_lesson" json:"lesson_id"`
	Completed bool   `json:"completed"`
}

func (uc *UserCourse) BeforeCreate(tx *gorm.DB) error {
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	return nil
}

func (p *UserLessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
