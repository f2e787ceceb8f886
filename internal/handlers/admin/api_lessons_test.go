package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s/coursePortal/internal/models"
)

func TestBulkUpdateLessons(t *testing.T) {
	svc, db := newTestService(t)

	course := models.Course{
		ID: "c1", Slug: "go-basics", Title: "Основы Go",
		Modules: []models.Module{
			{
				ID: "m1", Title: "Введение",
				Lessons: []models.Lesson{
					{ID: "l1", Title: "Привет, мир", Order: 0},
					{ID: "l2", Title: "Типы", Order: 1},
				},
			},
		},
	}
	require.NoError(t, db.Create(&course).Error)

	body := `{"lessons":[
		{"id":"l1","title":"Привет, мир!","duration":12},
		{"id":"l2","completed":true}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/lessons/bulk", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	svc.BulkUpdateLessonsAPI(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Saved  int               `json:"saved"`
		Failed map[string]string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Saved)
	assert.Empty(t, resp.Failed)

	var lesson models.Lesson
	require.NoError(t, db.First(&lesson, "id = ?", "l1").Error)
	assert.Equal(t, "Привет, мир!", lesson.Title)
	assert.Equal(t, 12, lesson.Duration)
}

func TestBulkUpdateLessons_UnknownIDReportedAsFailed(t *testing.T) {
	svc, db := newTestService(t)

	course := models.Course{
		ID: "c1", Slug: "go-basics", Title: "Основы Go",
		Modules: []models.Module{
			{
				ID: "m1", Title: "Введение",
				Lessons: []models.Lesson{
					{ID: "l1", Title: "Привет, мир"},
				},
			},
		},
	}
	require.NoError(t, db.Create(&course).Error)

	body := `{"lessons":[
		{"id":"l1","title":"Обновлено"},
		{"id":"ghost","title":"Урока с таким id нет"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/lessons/bulk", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	svc.BulkUpdateLessonsAPI(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Saved  int               `json:"saved"`
		Failed map[string]string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Несуществующий id не считается сохранённым молча
	assert.Equal(t, 1, resp.Saved)
	require.Contains(t, resp.Failed, "ghost")
	assert.Contains(t, resp.Failed["ghost"], "not found")
}
