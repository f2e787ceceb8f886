package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Уровни сложности курса
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Типы материалов урока
const (
	MaterialPDF   = "pdf"
	MaterialAudio = "audio"
	MaterialLink  = "link"
	MaterialText  = "text"
)

// Course (Курс)
type Course struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Slug        string `gorm:"uniqueIndex;size:255" json:"slug"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	// Цена в целых единицах валюты, без копеек
	Price          int            `json:"price"`
	IsFeatured     bool           `json:"is_featured"`
	Level          string         `json:"level"` // beginner / intermediate / advanced
	Tags           datatypes.JSON `json:"tags"`
	VideoLibraryID *string        `json:"video_library_id,omitempty"`

	Modules []Module `json:"modules" gorm:"constraint:OnDelete:CASCADE;"`
}

// Module (Модуль)
type Module struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	// Позиция модуля внутри курса. Колонка называется position,
	// потому что order — зарезервированное слово SQL.
	Order          int     `gorm:"column:position" json:"order"`
	Completed      bool    `json:"completed"`
	VideoLibraryID *string `json:"video_library_id,omitempty"`
	CourseID       string  `gorm:"size:36;index" json:"course_id"`

	Lessons []Lesson `json:"lessons" gorm:"constraint:OnDelete:CASCADE;"`
}

// Lesson (Урок)
type Lesson struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"` // Markdown
	Duration    int     `json:"duration"`              // минуты
	// Идентификатор видео во внешней библиотеке, не полный URL
	VideoURL       string  `json:"video_url"`
	VideoLibraryID *string `json:"video_library_id,omitempty"`
	Order          int     `gorm:"column:position" json:"order"`
	Completed      bool    `json:"completed"`
	ModuleID       string  `gorm:"size:36;index" json:"module_id"`

	Materials []Material `json:"materials" gorm:"constraint:OnDelete:CASCADE;"`
}

// Material (Материал урока)
type Material struct {
	ID       string  `gorm:"primaryKey;size:36" json:"id"`
	Title    string  `json:"title"`
	Type     string  `json:"type"` // "pdf", "audio", "link", "text"
	URL      *string `json:"url,omitempty"`
	Content  *string `json:"content,omitempty"` // для type=text
	LessonID string  `gorm:"size:36;index" json:"lesson_id"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (m *Module) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
