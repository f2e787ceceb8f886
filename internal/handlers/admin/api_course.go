package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/s/coursePortal/internal/models"
	"github.com/s/coursePortal/internal/reconcile"
)

// ==========================================
// 1. GET /api/courses (Список)
// 2. POST /api/courses (Создание)
// ==========================================
func (s *Service) HandleCoursesAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		s.getCourses(w, r)
	case http.MethodPost:
		s.createCourse(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ==========================================
// 3. GET /api/courses/{id} (Детали)
// 4. PUT /api/courses/{id} (Полное сохранение дерева)
// 5. DELETE /api/courses/{id} (Удаление)
// ==========================================
func (s *Service) HandleCourseByIDAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	vars := mux.Vars(r)
	id := vars["id"]

	switch r.Method {
	case http.MethodGet:
		s.getCourseByID(w, r, id)
	case http.MethodPut:
		s.updateCourse(w, r, id)
	case http.MethodDelete:
		s.deleteCourse(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// -------------------------------------------------------------------------
// Вспомогательные функции (Логика)
// -------------------------------------------------------------------------

func (s *Service) getCourses(w http.ResponseWriter, r *http.Request) {
	var courses []models.Course
	if err := s.DB.Order("created_at desc").Find(&courses).Error; err != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(courses)
}

func (s *Service) createCourse(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Slug           string   `json:"slug"`
		Title          string   `json:"title"`
		Subtitle       string   `json:"subtitle"`
		Description    string   `json:"description"`
		ImageURL       string   `json:"image_url"`
		Price          int      `json:"price"`
		IsFeatured     bool     `json:"is_featured"`
		Level          string   `json:"level"`
		Tags           []string `json:"tags"`
		VideoLibraryID *string  `json:"video_library_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	if input.Title == "" {
		jsonError(w, "Title is required", http.StatusBadRequest)
		return
	}
	if input.Slug == "" {
		jsonError(w, "Slug is required", http.StatusBadRequest)
		return
	}
	if input.Price < 0 {
		jsonError(w, "Price must be non-negative", http.StatusBadRequest)
		return
	}
	if !validLevel(input.Level) {
		jsonError(w, "Unknown level", http.StatusBadRequest)
		return
	}

	tags, err := json.Marshal(input.Tags)
	if err != nil {
		jsonError(w, "Invalid tags", http.StatusBadRequest)
		return
	}

	course := models.Course{
		Slug:           input.Slug,
		Title:          input.Title,
		Subtitle:       input.Subtitle,
		Description:    input.Description,
		ImageURL:       input.ImageURL,
		Price:          input.Price,
		IsFeatured:     input.IsFeatured,
		Level:          input.Level,
		Tags:           datatypes.JSON(tags),
		VideoLibraryID: input.VideoLibraryID,
	}

	if err := s.DB.Create(&course).Error; err != nil {
		s.Log.Errorw("course creation failed", "slug", input.Slug, "error", err)
		jsonError(w, "Failed to create course", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(course)
}

func (s *Service) getCourseByID(w http.ResponseWriter, r *http.Request, id string) {
	var course models.Course

	err := s.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons.Materials").
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			jsonError(w, "Course not found", http.StatusNotFound)
		} else {
			jsonError(w, "Database error", http.StatusInternalServerError)
		}
		return
	}

	json.NewEncoder(w).Encode(course)
}

// updateCourse принимает полный документ курса и прогоняет его через
// Reconciler: дифф дерева и атомарное применение плана.
func (s *Service) updateCourse(w http.ResponseWriter, r *http.Request, id string) {
	var input reconcile.CourseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		jsonError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if input.Price != nil && *input.Price < 0 {
		jsonError(w, "Price must be non-negative", http.StatusBadRequest)
		return
	}
	if input.Level != nil && !validLevel(*input.Level) {
		jsonError(w, "Unknown level", http.StatusBadRequest)
		return
	}

	course, skipped, err := s.Reconciler.ReconcileCourse(r.Context(), id, input)
	if errors.Is(err, reconcile.ErrNotFound) {
		jsonError(w, "Course not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Log.Errorw("course reconciliation failed", "course_id", id, "error", err)

		// Редактору нужно знать, на какой записи всё упало,
		// а не абстрактное «не сохранилось»
		var applyErr *reconcile.ApplyError
		if errors.As(err, &applyErr) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":  "Failed to save course",
				"level":  applyErr.Level,
				"id":     applyErr.ID,
				"op":     applyErr.Op,
				"fields": applyErr.Fields,
			})
			return
		}
		jsonError(w, "Failed to save course", http.StatusInternalServerError)
		return
	}

	response := struct {
		Course  *models.Course          `json:"course"`
		Skipped []reconcile.SkippedNode `json:"skipped,omitempty"`
	}{
		Course:  course,
		Skipped: skipped,
	}
	json.NewEncoder(w).Encode(response)
}

func (s *Service) deleteCourse(w http.ResponseWriter, r *http.Request, id string) {
	result := s.DB.Delete(&models.Course{}, "id = ?", id)

	if result.Error != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		jsonError(w, "Course not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Course deleted successfully"})
}

func validLevel(level string) bool {
	switch level {
	case "", models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
		return true
	}
	return false
}
