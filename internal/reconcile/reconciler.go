package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/s/coursePortal/internal/models"
)

// Транзакция живёт долго: курс может содержать десятки уроков.
const DefaultTimeout = 30 * time.Second

var ErrNotFound = errors.New("course not found")

// Invalidator сбрасывает закешированные представления курса после коммита.
type Invalidator interface {
	InvalidatePaths(ctx context.Context, paths ...string) error
}

// Reconciler применяет присланный документ курса к базе как единую
// атомарную операцию: диффит дерево уровень за уровнем и исполняет
// планы в порядке, безопасном для внешних ключей.
//
// Одновременные сохранения одного и того же курса не координируются:
// побеждает последняя запись. Сохранения разных курсов друг друга
// не блокируют.
type Reconciler struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	cache   Invalidator
	timeout time.Duration
}

func NewReconciler(db *gorm.DB, log *zap.SugaredLogger, cache Invalidator) *Reconciler {
	return &Reconciler{
		db:      db,
		log:     log,
		cache:   cache,
		timeout: DefaultTimeout,
	}
}

// ReconcileCourse сохраняет документ курса и возвращает полностью
// перечитанное дерево плюс список записей, пропущенных валидацией.
func (r *Reconciler) ReconcileCourse(ctx context.Context, courseID string, input CourseInput) (*models.Course, []SkippedNode, error) {
	// Текущее состояние читаем до открытия транзакции: если курса нет,
	// операция даже не начинается.
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Modules.Lessons.Materials").
		First(&course, "id = ?", courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load course: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var skipped []SkippedNode
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Скалярные поля курса
		if fields := courseFields(input); len(fields) > 0 {
			if err := tx.Model(&models.Course{}).Where("id = ?", courseID).Updates(fields).Error; err != nil {
				return &ApplyError{Level: "course", ID: courseID, Op: "update", Fields: fieldNames(fields), Err: err}
			}
		}

		// 2. Модули: удаление каскадом забирает уроки и материалы,
		// создание идёт пачкой.
		modPlan := DiffModules(courseID, course.Modules, input.Modules)
		skipped = append(skipped, modPlan.Skipped...)
		if err := applyModulePlan(tx, modPlan); err != nil {
			return err
		}

		lessonsByModule := make(map[string][]models.Lesson, len(course.Modules))
		materialsByLesson := map[string][]models.Material{}
		for _, m := range course.Modules {
			lessonsByModule[m.ID] = m.Lessons
			for _, l := range m.Lessons {
				materialsByLesson[l.ID] = l.Materials
			}
		}

		if input.Modules == nil {
			return nil
		}

		// 3-4. Уроки и материалы — только для модулей/уроков,
		// у которых соответствующее поле вообще прислано.
		for i := range *input.Modules {
			mod := &(*input.Modules)[i]
			if mod.Lessons == nil {
				continue
			}

			lessonPlan := DiffLessons(mod.ID, lessonsByModule[mod.ID], mod.Lessons)
			skipped = append(skipped, lessonPlan.Skipped...)
			if err := applyLessonPlan(tx, lessonPlan); err != nil {
				return err
			}

			for j := range *mod.Lessons {
				lesson := &(*mod.Lessons)[j]
				if lesson.Materials == nil {
					continue
				}

				matPlan := DiffMaterials(lesson.ID, materialsByLesson[lesson.ID], lesson.Materials)
				skipped = append(skipped, matPlan.Skipped...)
				if err := applyMaterialPlan(tx, matPlan); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// 5. Перечитываем дерево целиком, с сортировкой по позиции
	result, err := r.loadTree(ctx, courseID)
	if err != nil {
		return nil, nil, fmt.Errorf("reload course: %w", err)
	}

	if r.cache != nil {
		paths := []string{"/courses", "/courses/" + result.Slug, "/admin/courses"}
		// При смене slug страница курса закеширована ещё и под старым
		// адресом — его тоже надо сбросить
		if course.Slug != result.Slug {
			paths = append(paths, "/courses/"+course.Slug)
		}
		if err := r.cache.InvalidatePaths(ctx, paths...); err != nil {
			// Кеш протухнет по TTL и сам, сохранение из-за него не валим
			r.log.Warnw("cache invalidation failed", "course_id", courseID, "error", err)
		}
	}

	r.log.Infow("course reconciled",
		"course_id", courseID,
		"modules", len(result.Modules),
		"skipped", len(skipped),
	)
	return result, skipped, nil
}

func (r *Reconciler) loadTree(ctx context.Context, courseID string) (*models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Modules.Lessons.Materials").
		First(&course, "id = ?", courseID).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func applyModulePlan(tx *gorm.DB, plan ModulePlan) error {
	if len(plan.Delete) > 0 {
		if err := tx.Where("id IN ?", plan.Delete).Delete(&models.Module{}).Error; err != nil {
			return &ApplyError{Level: "module", Op: "delete", Err: err}
		}
	}
	for _, u := range plan.Update {
		if err := tx.Model(&models.Module{}).Where("id = ?", u.ID).Updates(u.Fields).Error; err != nil {
			return &ApplyError{Level: "module", ID: u.ID, Op: "update", Fields: fieldNames(u.Fields), Err: err}
		}
	}
	if len(plan.Create) > 0 {
		if err := tx.Create(&plan.Create).Error; err != nil {
			return &ApplyError{Level: "module", Op: "create", Err: err}
		}
	}
	return nil
}

func applyLessonPlan(tx *gorm.DB, plan LessonPlan) error {
	if len(plan.Delete) > 0 {
		if err := tx.Where("id IN ?", plan.Delete).Delete(&models.Lesson{}).Error; err != nil {
			return &ApplyError{Level: "lesson", Op: "delete", Err: err}
		}
	}
	for _, u := range plan.Update {
		if err := tx.Model(&models.Lesson{}).Where("id = ?", u.ID).Updates(u.Fields).Error; err != nil {
			return &ApplyError{Level: "lesson", ID: u.ID, Op: "update", Fields: fieldNames(u.Fields), Err: err}
		}
	}
	if len(plan.Create) > 0 {
		if err := tx.Create(&plan.Create).Error; err != nil {
			return &ApplyError{Level: "lesson", Op: "create", Err: err}
		}
	}
	return nil
}

func applyMaterialPlan(tx *gorm.DB, plan MaterialPlan) error {
	// Сначала удаления, затем upsert оставшихся
	if len(plan.Delete) > 0 {
		if err := tx.Where("id IN ?", plan.Delete).Delete(&models.Material{}).Error; err != nil {
			return &ApplyError{Level: "material", Op: "delete", Err: err}
		}
	}
	for _, u := range plan.Update {
		if err := tx.Model(&models.Material{}).Where("id = ?", u.ID).Updates(u.Fields).Error; err != nil {
			return &ApplyError{Level: "material", ID: u.ID, Op: "update", Fields: fieldNames(u.Fields), Err: err}
		}
	}
	if len(plan.Create) > 0 {
		if err := tx.Create(&plan.Create).Error; err != nil {
			return &ApplyError{Level: "material", Op: "create", Err: err}
		}
	}
	return nil
}

func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func courseFields(input CourseInput) map[string]interface{} {
	fields := map[string]interface{}{}
	if input.Slug != nil {
		fields["slug"] = *input.Slug
	}
	if input.Title != nil {
		fields["title"] = *input.Title
	}
	if input.Subtitle != nil {
		fields["subtitle"] = *input.Subtitle
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.ImageURL != nil {
		fields["image_url"] = *input.ImageURL
	}
	if input.Price != nil {
		fields["price"] = *input.Price
	}
	if input.IsFeatured != nil {
		fields["is_featured"] = *input.IsFeatured
	}
	if input.Level != nil {
		fields["level"] = *input.Level
	}
	if input.Tags != nil {
		// Теги храним JSON-массивом
		if raw, err := json.Marshal(*input.Tags); err == nil {
			fields["tags"] = raw
		}
	}
	if input.VideoLibraryID != nil {
		fields["video_library_id"] = *input.VideoLibraryID
	}
	return fields
}
