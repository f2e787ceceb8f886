package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/s/coursePortal/internal/auth"
	"github.com/s/coursePortal/internal/batch"
	"github.com/s/coursePortal/internal/cache"
	"github.com/s/coursePortal/internal/database"
	"github.com/s/coursePortal/internal/handlers"
	"github.com/s/coursePortal/internal/handlers/admin"
	"github.com/s/coursePortal/internal/middleware"
	"github.com/s/coursePortal/internal/models"
	"github.com/s/coursePortal/internal/reconcile"
)

func main() {
	// ---------------------------
	// 0. Загрузка переменных окружения
	// ---------------------------
	err := godotenv.Load()
	if err != nil {
		log.Println("Предупреждение: Не удалось загрузить файл .env. Используются системные переменные.")
	}

	// ---------------------------
	// 1. Логгер
	// ---------------------------
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	// ---------------------------
	// 2. Подключаем GORM (База данных)
	// ---------------------------
	db, err := database.Connect(sugar)
	if err != nil {
		log.Fatal("Ошибка подключения к БД:", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("Ошибка миграции:", err)
	}

	if err := database.Seed(db); err != nil {
		log.Println("Ошибка сидов (возможно, данные уже есть):", err)
	}

	// ---------------------------
	// 3. Настраиваем Google OAuth
	// ---------------------------
	clientId := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	if clientId == "" || clientSecret == "" || redirectURL == "" {
		log.Fatal("Ошибка: Переменные GOOGLE_... не установлены в .env")
	}

	oauthConfig := auth.InitGoogleOAuthConfig(clientId, clientSecret, redirectURL)

	// ---------------------------
	// 4. Настройка сессий
	// ---------------------------
	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		sessionKey = "super-secret-default-key" // Только для разработки!
		log.Println("Внимание: SESSION_KEY не задан, используется дефолтный.")
	}
	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false, // Поставьте true, если используете HTTPS
	}

	// ---------------------------
	// 5. Кеш представлений (Redis, опционально)
	// ---------------------------
	var viewCache cache.Store = cache.Noop{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		viewCache = cache.NewViewCache(client, 5*time.Minute)
		log.Println("✅ Кеш представлений: Redis", addr)
	} else {
		log.Println("Внимание: REDIS_ADDR не задан, кеш отключен.")
	}

	// ---------------------------
	// 6. Инициализация Хендлеров
	// ---------------------------
	h := handlers.NewHandler(db, store, oauthConfig, viewCache, sugar)

	adminService := admin.Service{
		Handler:    *h,
		Reconciler: reconcile.NewReconciler(db, sugar, viewCache),
		Runner:     batch.Runner{BatchSize: 3, Pause: 200 * time.Millisecond},
	}

	adminMiddleware := middleware.RequiredRole(h, models.RoleAdmin)

	// ---------------------------
	// 7. Роутинг с Gorilla Mux
	// ---------------------------
	r := mux.NewRouter()

	// --- Публичные маршруты ---
	r.HandleFunc("/auth/google/login", h.HandleGoogleLogin).Methods("GET")
	r.HandleFunc("/auth/google/callback", h.HandleGoogleCallback).Methods("GET")
	r.HandleFunc("/logout", h.HandleLogout).Methods("GET", "POST")

	r.HandleFunc("/api/courses/public", h.GetCoursesAPI).Methods("GET")
	r.HandleFunc("/api/courses/slug/{slug}", h.GetCourseStructureAPI).Methods("GET")

	// --- Маршруты пользователя ---
	r.HandleFunc("/api/enroll", h.SubmitEnrollment).Methods("POST")
	r.HandleFunc("/api/lessons/{id}/progress", h.UpdateLessonProgressAPI).Methods("POST")

	// --- АДМИН API (JSON для JS фронтенда) ---
	r.HandleFunc("/api/courses", adminMiddleware(adminService.HandleCoursesAPI)).Methods("GET", "POST")
	r.HandleFunc("/api/courses/{id}", adminMiddleware(adminService.HandleCourseByIDAPI)).Methods("GET", "PUT", "DELETE")
	r.HandleFunc("/api/lessons/bulk", adminMiddleware(adminService.BulkUpdateLessonsAPI)).Methods("POST")

	r.HandleFunc("/api/admin/enrollments", adminMiddleware(adminService.GetEnrollmentsAPI)).Methods("GET")

	r.HandleFunc("/api/blog", adminMiddleware(adminService.HandleBlogPostsAPI)).Methods("GET", "POST")
	r.HandleFunc("/api/blog/{id}", adminMiddleware(adminService.HandleBlogPostByIDAPI)).Methods("PUT", "DELETE")

	// ---------------------------
	// 8. Запуск сервера
	// ---------------------------
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	corsHandler := corsMiddleware(r)
	fmt.Printf("Сервер запущен: http://localhost:%s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// В продакшене лучше ставить конкретный домен
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
