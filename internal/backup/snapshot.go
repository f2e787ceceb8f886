package backup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/s/coursePortal/internal/models"
)

// Stats — счётчики по коллекциям снапшота. Числа modules/lessons
// выводятся из выгруженного дерева курсов, а не отдельными запросами,
// поэтому всегда согласованы с самими данными.
type Stats struct {
	Courses            int `json:"courses"`
	Modules            int `json:"modules"`
	Lessons            int `json:"lessons"`
	Users              int `json:"users"`
	UserCourses        int `json:"userCourses"`
	BlogPosts          int `json:"blogPosts"`
	UserMiniCourses    int `json:"userMiniCourses"`
	AuthTokens         int `json:"authTokens"`
	UserLessonProgress int `json:"userLessonProgress"`
}

// UserSummary — пользователь без секретов: только то, что нужно для
// восстановления аккаунта.
type UserSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot — самодостаточный слепок всего графа контента и пользователей,
// достаточный для полного восстановления.
type Snapshot struct {
	Timestamp          string                      `json:"timestamp"`
	Stats              Stats                       `json:"stats"`
	Courses            []models.Course             `json:"courses"`
	Users              []UserSummary               `json:"users"`
	UserCourses        []models.UserCourse         `json:"userCourses"`
	BlogPosts          []models.BlogPost           `json:"blogPosts"`
	UserMiniCourses    []models.UserMiniCourse     `json:"userMiniCourses"`
	AuthTokens         []models.AuthToken          `json:"authTokens"`
	UserLessonProgress []models.UserLessonProgress `json:"userLessonProgress"`
}

// Serializer собирает снапшот. Только чтение: никаких записей в базу.
type Serializer struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewSerializer(db *gorm.DB, log *zap.SugaredLogger) *Serializer {
	return &Serializer{db: db, log: log}
}

func (s *Serializer) BuildSnapshot(ctx context.Context) (*Snapshot, error) {
	// Пустые срезы, а не nil: пустая коллекция сериализуется как [],
	// отсутствие коллекции в документе — это ошибка формата.
	snap := &Snapshot{
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		Courses:            []models.Course{},
		Users:              []UserSummary{},
		UserCourses:        []models.UserCourse{},
		BlogPosts:          []models.BlogPost{},
		UserMiniCourses:    []models.UserMiniCourse{},
		AuthTokens:         []models.AuthToken{},
		UserLessonProgress: []models.UserLessonProgress{},
	}

	db := s.db.WithContext(ctx)

	err := db.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons.Materials").
		Order("created_at ASC").
		Find(&snap.Courses).Error
	if err != nil {
		return nil, fmt.Errorf("dump courses: %w", err)
	}

	var users []models.User
	if err := db.Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("dump users: %w", err)
	}
	for _, u := range users {
		snap.Users = append(snap.Users, UserSummary{
			ID:        u.ID,
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}

	if err := db.Find(&snap.UserCourses).Error; err != nil {
		return nil, fmt.Errorf("dump enrollments: %w", err)
	}
	if err := db.Find(&snap.BlogPosts).Error; err != nil {
		return nil, fmt.Errorf("dump blog posts: %w", err)
	}
	if err := db.Find(&snap.UserMiniCourses).Error; err != nil {
		return nil, fmt.Errorf("dump mini-course purchases: %w", err)
	}
	if err := db.Find(&snap.AuthTokens).Error; err != nil {
		return nil, fmt.Errorf("dump auth tokens: %w", err)
	}
	if err := db.Find(&snap.UserLessonProgress).Error; err != nil {
		return nil, fmt.Errorf("dump lesson progress: %w", err)
	}

	snap.Stats = Stats{
		Courses:            len(snap.Courses),
		Users:              len(snap.Users),
		UserCourses:        len(snap.UserCourses),
		BlogPosts:          len(snap.BlogPosts),
		UserMiniCourses:    len(snap.UserMiniCourses),
		AuthTokens:         len(snap.AuthTokens),
		UserLessonProgress: len(snap.UserLessonProgress),
	}
	for _, c := range snap.Courses {
		snap.Stats.Modules += len(c.Modules)
		for _, m := range c.Modules {
			snap.Stats.Lessons += len(m.Lessons)
		}
	}

	s.log.Infow("snapshot built",
		"courses", snap.Stats.Courses,
		"modules", snap.Stats.Modules,
		"lessons", snap.Stats.Lessons,
		"users", snap.Stats.Users,
	)
	return snap, nil
}
