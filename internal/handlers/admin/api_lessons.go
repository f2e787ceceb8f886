package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/s/coursePortal/internal/models"
)

// POST /api/lessons/bulk
//
// Массовое сохранение уроков из редактора. Вместо самодельных циклов
// с ретраями на клиенте — общий Runner: фиксированное число
// одновременных записей и пауза между пачками.
func (s *Service) BulkUpdateLessonsAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req struct {
		Lessons []struct {
			ID          string  `json:"id"`
			Title       *string `json:"title"`
			Description *string `json:"description"`
			Duration    *int    `json:"duration"`
			VideoURL    *string `json:"video_url"`
			Completed   *bool   `json:"completed"`
		} `json:"lessons"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if len(req.Lessons) == 0 {
		jsonError(w, "No lessons provided", http.StatusBadRequest)
		return
	}

	var mu sync.Mutex
	failed := map[string]string{}

	err := s.Runner.Run(r.Context(), len(req.Lessons), func(ctx context.Context, i int) error {
		item := req.Lessons[i]

		fields := map[string]interface{}{}
		if item.Title != nil {
			fields["title"] = *item.Title
		}
		if item.Description != nil {
			fields["description"] = *item.Description
		}
		if item.Duration != nil {
			fields["duration"] = *item.Duration
		}
		if item.VideoURL != nil {
			fields["video_url"] = *item.VideoURL
		}
		if item.Completed != nil {
			fields["completed"] = *item.Completed
		}
		if len(fields) == 0 {
			return nil
		}

		result := s.DB.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", item.ID).Updates(fields)
		switch {
		case result.Error != nil:
			mu.Lock()
			failed[item.ID] = result.Error.Error()
			mu.Unlock()
		case result.RowsAffected == 0:
			// Updates по несуществующему id не ошибка для gorm,
			// но для клиента это несохранённый урок
			mu.Lock()
			failed[item.ID] = "lesson not found"
			mu.Unlock()
		}
		// Ошибку одной записи не превращаем в ошибку всего прогона
		return nil
	})
	if err != nil {
		jsonError(w, "Bulk save interrupted", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"saved":  len(req.Lessons) - len(failed),
		"failed": failed,
	})
}
