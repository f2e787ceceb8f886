package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/s/coursePortal/internal/models"
)

// GetCoursesAPI — публичный список курсов. Ответ кешируется по пути,
// кеш сбрасывает Reconciler после сохранения курса.
func (h *Handler) GetCoursesAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	const path = "/courses"
	if payload, ok := h.Cache.Get(r.Context(), path); ok {
		w.Write(payload)
		return
	}

	var courses []models.Course
	if err := h.DB.Order("created_at desc").Find(&courses).Error; err != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(courses)
	if err != nil {
		jsonError(w, "Encoding error", http.StatusInternalServerError)
		return
	}
	if err := h.Cache.Set(r.Context(), path, payload); err != nil {
		h.Log.Warnw("cache set failed", "path", path, "error", err)
	}
	w.Write(payload)
}

// GetCourseStructureAPI — полное дерево курса по slug, с сортировкой
// модулей и уроков по позиции. Тоже ходит через кеш.
func (h *Handler) GetCourseStructureAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	vars := mux.Vars(r)
	slug := vars["slug"]

	path := "/courses/" + slug
	if payload, ok := h.Cache.Get(r.Context(), path); ok {
		w.Write(payload)
		return
	}

	var course models.Course
	err := h.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons.Materials").
		First(&course, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		jsonError(w, "Курс не найден", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	payload, err := json.Marshal(course)
	if err != nil {
		jsonError(w, "Encoding error", http.StatusInternalServerError)
		return
	}
	if err := h.Cache.Set(r.Context(), path, payload); err != nil {
		h.Log.Warnw("cache set failed", "path", path, "error", err)
	}
	w.Write(payload)
}

// SubmitEnrollment — запись пользователя на курс (бесплатный доступ
// или завершённая оплата, глазами этого сервиса разницы нет).
func (h *Handler) SubmitEnrollment(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := h.GetAuthenticatedUserID(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CourseID string `json:"course_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var course models.Course
	if err := h.DB.First(&course, "id = ?", req.CourseID).Error; err != nil {
		jsonError(w, "Курс не найден", http.StatusNotFound)
		return
	}

	var existing models.UserCourse
	if err := h.DB.Where("user_id = ? AND course_id = ?", userID, req.CourseID).First(&existing).Error; err == nil {
		jsonError(w, "Запись уже существует", http.StatusConflict)
		return
	}

	enrollment := models.UserCourse{
		UserID:   userID,
		CourseID: req.CourseID,
	}
	if err := h.DB.Create(&enrollment).Error; err != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(enrollment)
}

// UpdateLessonProgressAPI — отметка "урок пройден" и пересчёт процента
// прохождения курса.
func (h *Handler) UpdateLessonProgressAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, ok := h.GetAuthenticatedUserID(r)
	if !ok {
		jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	lessonID := vars["id"]

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var lesson models.Lesson
	if err := h.DB.First(&lesson, "id = ?", lessonID).Error; err != nil {
		jsonError(w, "Урок не найден", http.StatusNotFound)
		return
	}

	var progress models.UserLessonProgress
	err := h.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error
	switch {
	case err == nil:
		if err := h.DB.Model(&progress).Update("completed", req.Completed).Error; err != nil {
			jsonError(w, "Database error", http.StatusInternalServerError)
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		progress = models.UserLessonProgress{
			UserID:    userID,
			LessonID:  lessonID,
			Completed: req.Completed,
		}
		if err := h.DB.Create(&progress).Error; err != nil {
			jsonError(w, "Database error", http.StatusInternalServerError)
			return
		}
	default:
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	if err := h.recalcCourseProgress(userID, lesson.ModuleID); err != nil {
		h.Log.Warnw("progress recalculation failed", "user_id", userID, "error", err)
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// recalcCourseProgress пересчитывает процент прохождения курса, которому
// принадлежит модуль.
func (h *Handler) recalcCourseProgress(userID, moduleID string) error {
	var module models.Module
	if err := h.DB.First(&module, "id = ?", moduleID).Error; err != nil {
		return err
	}

	var lessonIDs []string
	err := h.DB.Model(&models.Lesson{}).
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id = ?", module.CourseID).
		Pluck("lessons.id", &lessonIDs).Error
	if err != nil {
		return err
	}
	if len(lessonIDs) == 0 {
		return nil
	}

	var done int64
	err = h.DB.Model(&models.UserLessonProgress{}).
		Where("user_id = ? AND lesson_id IN ? AND completed = ?", userID, lessonIDs, true).
		Count(&done).Error
	if err != nil {
		return err
	}

	percent := int(done) * 100 / len(lessonIDs)
	return h.DB.Model(&models.UserCourse{}).
		Where("user_id = ? AND course_id = ?", userID, module.CourseID).
		Updates(map[string]interface{}{
			"progress":  percent,
			"completed": percent == 100,
		}).Error
}
