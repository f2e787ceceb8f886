package admin

import (
	"encoding/json"
	"net/http"

	"github.com/s/coursePortal/internal/batch"
	"github.com/s/coursePortal/internal/handlers"
	"github.com/s/coursePortal/internal/models"
	"github.com/s/coursePortal/internal/reconcile"
)

// Service — админский слой поверх общего Handler.
type Service struct {
	handlers.Handler
	Reconciler *reconcile.Reconciler
	Runner     batch.Runner
}

// GET /api/admin/enrollments
func (s *Service) GetEnrollmentsAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var enrollments []models.UserCourse
	if err := s.DB.Order("created_at desc").Find(&enrollments).Error; err != nil {
		jsonError(w, "Database error", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(enrollments)
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
