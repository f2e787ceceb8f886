package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlogPost — пост блога / мини-курс с видео.
// Параллельная курсам сущность, продаётся отдельно.
type BlogPost struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Slug           string  `gorm:"uniqueIndex;size:255" json:"slug"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	VideoURL       string  `json:"video_url"`
	VideoLibraryID *string `json:"video_library_id,omitempty"`
	Price          int     `json:"price"`
	IsPublished    bool    `json:"is_published"`
}

// UserMiniCourse — запись о покупке мини-курса
type UserMiniCourse struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	UserID     string `gorm:"size:36;uniqueIndex:idx_user_minicourse" json:"user_id"`
	BlogPostID string `gorm:"size:36;uniqueIndex:idx_user_minicourse" json:"blog_post_id"`
}

func (b *BlogPost) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (m *UserMiniCourse) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
