package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/s/coursePortal/internal/batch"
	"github.com/s/coursePortal/internal/cache"
	"github.com/s/coursePortal/internal/database"
	"github.com/s/coursePortal/internal/handlers"
	"github.com/s/coursePortal/internal/models"
	"github.com/s/coursePortal/internal/reconcile"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.AutoMigrate(db))

	log := zap.NewNop().Sugar()
	svc := &Service{
		Handler: handlers.Handler{
			DB:    db,
			Cache: cache.Noop{},
			Log:   log,
		},
		Reconciler: reconcile.NewReconciler(db, log, cache.Noop{}),
		Runner:     batch.Runner{BatchSize: 2},
	}
	return svc, db
}

func newRouter(svc *Service) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/courses", svc.HandleCoursesAPI)
	r.HandleFunc("/api/courses/{id}", svc.HandleCourseByIDAPI)
	return r
}

func TestCreateCourse(t *testing.T) {
	svc, db := newTestService(t)
	router := newRouter(svc)

	body := `{"slug":"go-basics","title":"Основы Go","price":4900,"level":"beginner","tags":["go","backend"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/courses", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "go-basics", created.Slug)

	var n int64
	require.NoError(t, db.Model(&models.Course{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCreateCourse_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	router := newRouter(svc)

	cases := []struct {
		name string
		body string
	}{
		{"no title", `{"slug":"x"}`},
		{"no slug", `{"title":"x"}`},
		{"negative price", `{"slug":"x","title":"x","price":-1}`},
		{"bad level", `{"slug":"x","title":"x","level":"guru"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/courses", bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestUpdateCourse_SavesTreeAndReportsSkipped(t *testing.T) {
	svc, db := newTestService(t)
	router := newRouter(svc)

	course := models.Course{ID: "c1", Slug: "go-basics", Title: "Основы Go"}
	require.NoError(t, db.Create(&course).Error)

	body := `{
		"title": "Go с нуля",
		"modules": [
			{
				"title": "Введение",
				"lessons": [
					{
						"title": "Привет, мир",
						"materials": [
							{"title":"Конспект","type":"text","content":"…"},
							{"title":"Битая ссылка","type":"link"}
						]
					}
				]
			}
		]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/courses/c1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Course  models.Course           `json:"course"`
		Skipped []reconcile.SkippedNode `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "Go с нуля", resp.Course.Title)
	require.Len(t, resp.Course.Modules, 1)
	require.Len(t, resp.Course.Modules[0].Lessons, 1)
	assert.Len(t, resp.Course.Modules[0].Lessons[0].Materials, 1)

	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "Битая ссылка", resp.Skipped[0].Title)
}

func TestUpdateCourse_FailureNamesEntity(t *testing.T) {
	svc, db := newTestService(t)
	router := newRouter(svc)

	require.NoError(t, db.Create(&models.Course{ID: "c1", Slug: "a", Title: "A"}).Error)
	other := models.Course{
		ID: "c2", Slug: "b", Title: "B",
		Modules: []models.Module{{ID: "m9", Title: "Чужой модуль"}},
	}
	require.NoError(t, db.Create(&other).Error)

	// id m9 занят модулем другого курса: вставка упадёт на первичном ключе
	body := `{"modules":[{"id":"m9","title":"Конфликт"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/courses/c1", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error string `json:"error"`
		Level string `json:"level"`
		Op    string `json:"op"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to save course", resp.Error)
	assert.Equal(t, "module", resp.Level)
	assert.Equal(t, "create", resp.Op)
}

func TestUpdateCourse_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/courses/nope", bytes.NewBufferString(`{"title":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCourse(t *testing.T) {
	svc, db := newTestService(t)
	router := newRouter(svc)

	require.NoError(t, db.Create(&models.Course{ID: "c1", Slug: "x", Title: "x"}).Error)

	req := httptest.NewRequest(http.MethodDelete, "/api/courses/c1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/courses/c1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
