package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/s/coursePortal/internal/database"
	"github.com/s/coursePortal/internal/models"
)

type fakeInvalidator struct {
	paths []string
}

func (f *fakeInvalidator) InvalidatePaths(_ context.Context, paths ...string) error {
	f.paths = append(f.paths, paths...)
	return nil
}

type ReconcilerSuite struct {
	suite.Suite
	db  *gorm.DB
	inv *fakeInvalidator
	rec *Reconciler
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerSuite))
}

func (s *ReconcilerSuite) SetupTest() {
	// Общий кеш с одним соединением, иначе каждая сессия sqlite
	// получит собственную пустую базу в памяти.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.Exec("PRAGMA foreign_keys = ON").Error)
	s.Require().NoError(database.AutoMigrate(db))

	s.db = db
	s.inv = &fakeInvalidator{}
	s.rec = NewReconciler(db, zap.NewNop().Sugar(), s.inv)

	s.seedCourse()
}

// seedCourse кладёт в базу курс c1 с двумя модулями:
//
//	m1 (позиция 0): уроки l1 (pdf-материал mat1), l2
//	m2 (позиция 1): урок l3
func (s *ReconcilerSuite) seedCourse() {
	course := models.Course{
		ID:    "c1",
		Slug:  "go-basics",
		Title: "Основы Go",
		Price: 4900,
		Level: models.LevelBeginner,
		Modules: []models.Module{
			{
				ID: "m1", Title: "Введение", Order: 0,
				Lessons: []models.Lesson{
					{
						ID: "l1", Title: "Привет, мир", Order: 0,
						Materials: []models.Material{
							{ID: "mat1", Title: "Конспект", Type: models.MaterialPDF, URL: strPtr("https://cdn/l1.pdf")},
						},
					},
					{ID: "l2", Title: "Типы", Order: 1},
				},
			},
			{
				ID: "m2", Title: "Практика", Order: 1,
				Lessons: []models.Lesson{
					{ID: "l3", Title: "Задачи", Order: 0},
				},
			},
		},
	}
	s.Require().NoError(s.db.Create(&course).Error)
}

func (s *ReconcilerSuite) count(model interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Count(&n).Error)
	return n
}

func (s *ReconcilerSuite) TestScalarUpdateLeavesModulesUntouched() {
	input := CourseInput{Title: strPtr("Go с нуля"), Price: intPtr(5900)}

	course, skipped, err := s.rec.ReconcileCourse(context.Background(), "c1", input)
	s.Require().NoError(err)
	s.Empty(skipped)

	s.Equal("Go с нуля", course.Title)
	s.Equal(5900, course.Price)
	s.Len(course.Modules, 2)
	s.EqualValues(3, s.count(&models.Lesson{}))
}

func (s *ReconcilerSuite) TestEmptyModuleListDeletesWholeTree() {
	empty := []ModuleInput{}
	input := CourseInput{Modules: &empty}

	course, _, err := s.rec.ReconcileCourse(context.Background(), "c1", input)
	s.Require().NoError(err)

	s.Empty(course.Modules)
	// Каскад забрал уроки и материалы
	s.EqualValues(0, s.count(&models.Module{}))
	s.EqualValues(0, s.count(&models.Lesson{}))
	s.EqualValues(0, s.count(&models.Material{}))
}

func (s *ReconcilerSuite) TestReorderCreateAndCascadeDelete() {
	newLessons := []LessonInput{{Title: "Новый урок"}}
	modules := []ModuleInput{
		{ID: "m2", Title: "Практика"},
		{Title: "Финал", Lessons: &newLessons},
	}
	input := CourseInput{Modules: &modules}

	course, skipped, err := s.rec.ReconcileCourse(context.Background(), "c1", input)
	s.Require().NoError(err)
	s.Empty(skipped)

	s.Require().Len(course.Modules, 2)
	s.Equal("m2", course.Modules[0].ID)
	s.Equal(0, course.Modules[0].Order)
	s.Equal("Финал", course.Modules[1].Title)
	s.Equal(1, course.Modules[1].Order)
	s.Require().Len(course.Modules[1].Lessons, 1)
	s.Equal("Новый урок", course.Modules[1].Lessons[0].Title)

	// m1 удалён, его уроки и материалы ушли каскадом
	s.EqualValues(0, s.db.Where("id IN ?", []string{"l1", "l2"}).Find(&[]models.Lesson{}).RowsAffected)
	s.EqualValues(0, s.count(&models.Material{}))
}

func (s *ReconcilerSuite) TestOmittedLessonsFieldPreservesLessons() {
	modules := []ModuleInput{
		{ID: "m1", Title: "Введение (обновлено)"},
		{ID: "m2", Title: "Практика"},
	}
	input := CourseInput{Modules: &modules}

	course, _, err := s.rec.ReconcileCourse(context.Background(), "c1", input)
	s.Require().NoError(err)

	s.Equal("Введение (обновлено)", course.Modules[0].Title)
	s.Len(course.Modules[0].Lessons, 2)
	s.EqualValues(3, s.count(&models.Lesson{}))
	s.EqualValues(1, s.count(&models.Material{}))
}

func (s *ReconcilerSuite) TestMaterialValidationSkipsButSavesRest() {
	materials := []MaterialInput{
		{ID: "mat1", Title: "Конспект", Type: models.MaterialPDF, URL: strPtr("https://cdn/l1.pdf")},
		{Title: "Ссылка без адреса", Type: models.MaterialLink},
		{Title: "Заметки", Type: models.MaterialText, Content: strPtr("…")},
	}
	lessons := []LessonInput{
		{ID: "l1", Title: "Привет, мир", Materials: &materials},
		{ID: "l2", Title: "Типы"},
	}
	modules := []ModuleInput{
		{ID: "m1", Title: "Введение", Lessons: &lessons},
		{ID: "m2", Title: "Практика"},
	}
	input := CourseInput{Modules: &modules}

	course, skipped, err := s.rec.ReconcileCourse(context.Background(), "c1", input)
	s.Require().NoError(err)

	s.Require().Len(skipped, 1)
	s.Equal("Ссылка без адреса", skipped[0].Title)

	s.Require().Len(course.Modules[0].Lessons[0].Materials, 2)
	titles := []string{
		course.Modules[0].Lessons[0].Materials[0].Title,
		course.Modules[0].Lessons[0].Materials[1].Title,
	}
	s.ElementsMatch([]string{"Конспект", "Заметки"}, titles)
}

func (s *ReconcilerSuite) TestUnknownCourse() {
	_, _, err := s.rec.ReconcileCourse(context.Background(), "no-such-id", CourseInput{})
	s.ErrorIs(err, ErrNotFound)
}

func (s *ReconcilerSuite) TestFailureRollsBackEverything() {
	// Второй курс с модулем, чей id вызовет конфликт первичного ключа
	other := models.Course{
		ID: "c2", Slug: "other", Title: "Другой курс",
		Modules: []models.Module{{ID: "m9", Title: "Чужой модуль"}},
	}
	s.Require().NoError(s.db.Create(&other).Error)

	modules := []ModuleInput{
		{ID: "m1", Title: "Введение"},
		{ID: "m9", Title: "Конфликт"}, // id занят модулем c2
		{Title: "Лишний"},
	}
	input := CourseInput{Title: strPtr("Не должно сохраниться"), Modules: &modules}

	_, _, err := s.rec.ReconcileCourse(context.Background(), "c1", input)
	s.Require().Error(err)

	// Ошибка несёт уровень и операцию, на которых всё упало
	var applyErr *ApplyError
	s.Require().ErrorAs(err, &applyErr)
	s.Equal("module", applyErr.Level)
	s.Equal("create", applyErr.Op)

	// Откатилось всё: и скаляр курса, и удаление m2, и новые модули
	var course models.Course
	s.Require().NoError(s.db.Preload("Modules").First(&course, "id = ?", "c1").Error)
	s.Equal("Основы Go", course.Title)
	s.Len(course.Modules, 2)

	var extra int64
	s.Require().NoError(s.db.Model(&models.Module{}).Where("title = ?", "Лишний").Count(&extra).Error)
	s.EqualValues(0, extra)
}

func (s *ReconcilerSuite) TestCacheInvalidatedAfterSave() {
	_, _, err := s.rec.ReconcileCourse(context.Background(), "c1", CourseInput{Title: strPtr("x")})
	s.Require().NoError(err)

	s.Contains(s.inv.paths, "/courses")
	s.Contains(s.inv.paths, "/courses/go-basics")
}

func (s *ReconcilerSuite) TestSlugChangeInvalidatesOldPath() {
	_, _, err := s.rec.ReconcileCourse(context.Background(), "c1", CourseInput{Slug: strPtr("go-from-scratch")})
	s.Require().NoError(err)

	// Старый адрес страницы курса тоже сброшен, иначе до истечения TTL
	// по нему отдаётся устаревшее дерево
	s.Contains(s.inv.paths, "/courses/go-from-scratch")
	s.Contains(s.inv.paths, "/courses/go-basics")
}

func (s *ReconcilerSuite) TestApplyThenRediffIsEmpty() {
	materials := []MaterialInput{
		{Title: "Шпаргалка", Type: models.MaterialText, Content: strPtr("var x int")},
	}
	lessons := []LessonInput{
		{ID: "l2", Title: "Типы", Materials: &materials},
		{Title: "Новый"},
	}
	modules := []ModuleInput{
		{ID: "m1", Title: "Введение", Lessons: &lessons},
	}
	input := CourseInput{Modules: &modules}

	course, skipped, err := s.rec.ReconcileCourse(context.Background(), "c1", input)
	s.Require().NoError(err)
	s.Empty(skipped)

	// Повторный дифф по применённому состоянию пуст на каждом уровне
	s.True(DiffModules("c1", course.Modules, input.Modules).Empty())
	for _, mod := range *input.Modules {
		var cur models.Module
		for _, m := range course.Modules {
			if m.ID == mod.ID {
				cur = m
			}
		}
		s.True(DiffLessons(mod.ID, cur.Lessons, mod.Lessons).Empty())
		for _, lesson := range *mod.Lessons {
			for _, l := range cur.Lessons {
				if l.ID == lesson.ID && lesson.Materials != nil {
					s.True(DiffMaterials(lesson.ID, l.Materials, lesson.Materials).Empty())
				}
			}
		}
	}
}
