package admin

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/s/coursePortal/internal/models"
)

// =======================
// BLOG / MINI-COURSES API
// =======================

func (s *Service) HandleBlogPostsAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		var posts []models.BlogPost
		if err := s.DB.Order("created_at desc").Find(&posts).Error; err != nil {
			jsonError(w, "Database error", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(posts)

	case http.MethodPost:
		var input struct {
			Slug           string  `json:"slug"`
			Title          string  `json:"title"`
			Description    string  `json:"description"`
			VideoURL       string  `json:"video_url"`
			VideoLibraryID *string `json:"video_library_id"`
			Price          int     `json:"price"`
			IsPublished    bool    `json:"is_published"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if input.Title == "" || input.Slug == "" {
			jsonError(w, "Title and slug are required", http.StatusBadRequest)
			return
		}

		post := models.BlogPost{
			Slug:           input.Slug,
			Title:          input.Title,
			Description:    input.Description,
			VideoURL:       input.VideoURL,
			VideoLibraryID: input.VideoLibraryID,
			Price:          input.Price,
			IsPublished:    input.IsPublished,
		}
		if err := s.DB.Create(&post).Error; err != nil {
			jsonError(w, "Failed to create blog post", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(post)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Service) HandleBlogPostByIDAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	vars := mux.Vars(r)
	id := vars["id"]

	switch r.Method {
	case http.MethodPut:
		var input map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		// id и created_at менять нельзя
		delete(input, "id")
		delete(input, "created_at")

		if err := s.DB.Model(&models.BlogPost{}).Where("id = ?", id).Updates(input).Error; err != nil {
			jsonError(w, "Failed to update blog post", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})

	case http.MethodDelete:
		result := s.DB.Delete(&models.BlogPost{}, "id = ?", id)
		if result.Error != nil {
			jsonError(w, "Database error", http.StatusInternalServerError)
			return
		}
		if result.RowsAffected == 0 {
			jsonError(w, "Blog post not found", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
