package reconcile

import "github.com/s/coursePortal/internal/models"

// CourseInput — документ курса, который присылает админка.
// Скалярные поля — указатели: обновляем только то, что прислали.
//
// Указатель на срез различает два принципиально разных случая:
// nil — поле не прислали вовсе, набор дочерних записей не трогаем;
// пустой срез — прислали пустой список, удалить всё.
// Это нужно для частичных сохранений ("сохранить только редактируемый
// урок"), которые не должны молча стирать соседний контент.
type CourseInput struct {
	Slug           *string   `json:"slug"`
	Title          *string   `json:"title"`
	Subtitle       *string   `json:"subtitle"`
	Description    *string   `json:"description"`
	ImageURL       *string   `json:"image_url"`
	Price          *int      `json:"price"`
	IsFeatured     *bool     `json:"is_featured"`
	Level          *string   `json:"level"`
	Tags           *[]string `json:"tags"`
	VideoLibraryID *string   `json:"video_library_id"`

	Modules *[]ModuleInput `json:"modules"`
}

type ModuleInput struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Order          *int    `json:"order"`
	Completed      bool    `json:"completed"`
	VideoLibraryID *string `json:"video_library_id"`

	Lessons *[]LessonInput `json:"lessons"`
}

type LessonInput struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Duration       int     `json:"duration"`
	VideoURL       string  `json:"video_url"`
	VideoLibraryID *string `json:"video_library_id"`
	Order          *int    `json:"order"`
	Completed      bool    `json:"completed"`

	Materials *[]MaterialInput `json:"materials"`
}

type MaterialInput struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Type    string  `json:"type"`
	URL     *string `json:"url"`
	Content *string `json:"content"`
}

// FieldUpdate — точечное обновление одной записи по id
type FieldUpdate struct {
	ID     string
	Fields map[string]interface{}
}

// ApplyError говорит, на какой именно записи споткнулось применение
// плана: админке нужно показать не «не сохранилось», а что конкретно.
type ApplyError struct {
	Level  string   // "course", "module", "lesson", "material"
	ID     string   // пустой для пакетной вставки
	Op     string   // "create", "update", "delete"
	Fields []string // затронутые колонки, для обновлений
	Err    error
}

func (e *ApplyError) Error() string {
	msg := e.Op + " " + e.Level
	if e.ID != "" {
		msg += " " + e.ID
	}
	return msg + ": " + e.Err.Error()
}

func (e *ApplyError) Unwrap() error { return e.Err }

// SkippedNode — запись, не прошедшая валидацию.
// Такие записи исключаются из плана, но не валят сохранение целиком.
type SkippedNode struct {
	Level  string `json:"level"` // "module", "lesson", "material"
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

type ModulePlan struct {
	Create  []models.Module
	Update  []FieldUpdate
	Delete  []string
	Skipped []SkippedNode
}

type LessonPlan struct {
	Create  []models.Lesson
	Update  []FieldUpdate
	Delete  []string
	Skipped []SkippedNode
}

type MaterialPlan struct {
	Create  []models.Material
	Update  []FieldUpdate
	Delete  []string
	Skipped []SkippedNode
}

func (p ModulePlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

func (p LessonPlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

func (p MaterialPlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}
