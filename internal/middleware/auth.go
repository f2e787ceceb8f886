package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/s/coursePortal/internal/handlers"
	"github.com/s/coursePortal/internal/models"
)

// RequiredRole создает Middleware, требующее определенной роли.
func RequiredRole(h *handlers.Handler, requiredRole string) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// 1. Проверка аутентификации
			userID, isAuthenticated := h.GetAuthenticatedUserID(r)
			if !isAuthenticated {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}

			// 2. Роль достаём из базы, а не из сессии
			var user models.User
			if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
				http.Error(w, "User not found or database error", http.StatusUnauthorized)
				return
			}

			if user.Role != requiredRole {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "Access denied"})
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}
