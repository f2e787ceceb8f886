package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/s/coursePortal/internal/models"
)

// Фраза, которую оператор обязан ввести дословно (с учётом регистра),
// прежде чем начнётся что-то разрушительное.
const ConfirmPhrase = "RESTORE ALL DATA"

// Восстановление может перелопатить всю базу
const restoreTimeout = 120 * time.Second

var (
	ErrConfirmationDeclined = errors.New("confirmation declined")
	ErrSafetyBackup         = errors.New("safety backup failed")
)

// Состояния восстановления
type State string

const (
	StateIdle                 State = "IDLE"
	StateValidating           State = "VALIDATING"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateSafetyBackup         State = "SAFETY_BACKUP"
	StateRestoring            State = "RESTORING"
	StateDone                 State = "DONE"
	StateAborted              State = "ABORTED"
	StateFailed               State = "FAILED"
)

// ConfirmFunc возвращает ответ оператора на запрос подтверждения.
// В проде это чтение stdin, в тестах — фейк.
type ConfirmFunc func(prompt string) (string, error)

type Result struct {
	State State
	// Куда лёг страховочный бэкап: при неудачном восстановлении это
	// ручной путь отката для оператора.
	SafetyBackupDir string
	Stats           Stats
}

// Restorer проигрывает снапшот обратно в базу.
//
// Порядок жёсткий: валидация → подтверждение оператором → страховочный
// бэкап текущего состояния → одна транзакция с удалением от листьев к
// корню и пересозданием от корня к листьям. Пользователи никогда не
// удаляются — только upsert по id, чтобы аккаунты, созданные после
// снапшота, пережили восстановление.
type Restorer struct {
	db         *gorm.DB
	serializer *Serializer
	store      *Store
	confirm    ConfirmFunc
	log        *zap.SugaredLogger
}

func NewRestorer(db *gorm.DB, serializer *Serializer, store *Store, confirm ConfirmFunc, log *zap.SugaredLogger) *Restorer {
	return &Restorer{
		db:         db,
		serializer: serializer,
		store:      store,
		confirm:    confirm,
		log:        log,
	}
}

func (r *Restorer) Run(ctx context.Context, snapshotDir string) (*Result, error) {
	res := &Result{State: StateValidating}

	snap, err := r.store.Read(snapshotDir)
	if err != nil {
		res.State = StateAborted
		return res, err
	}

	res.State = StateAwaitingConfirmation
	answer, err := r.confirm(fmt.Sprintf("Восстановление удалит текущие данные. Введите %q для продолжения: ", ConfirmPhrase))
	if err != nil {
		res.State = StateAborted
		return res, fmt.Errorf("%w: %v", ErrConfirmationDeclined, err)
	}
	if answer != ConfirmPhrase {
		res.State = StateAborted
		return res, ErrConfirmationDeclined
	}

	// Страховочный бэкап живого состояния — до любого удаления.
	// Не получился — не восстанавливаем (fail closed).
	res.State = StateSafetyBackup
	live, err := r.serializer.BuildSnapshot(ctx)
	if err != nil {
		res.State = StateAborted
		return res, fmt.Errorf("%w: %v", ErrSafetyBackup, err)
	}
	safetyDir, err := r.store.Write(live)
	if err != nil {
		res.State = StateAborted
		return res, fmt.Errorf("%w: %v", ErrSafetyBackup, err)
	}
	res.SafetyBackupDir = safetyDir
	r.log.Infow("safety backup written", "dir", safetyDir)

	res.State = StateRestoring
	txCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()

	err = r.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		if err := wipe(tx); err != nil {
			return err
		}
		return reinstate(tx, snap)
	})
	if err != nil {
		res.State = StateFailed
		r.log.Errorw("restore failed, safety backup retained",
			"safety_backup", safetyDir, "error", err)
		return res, fmt.Errorf("restore transaction: %w", err)
	}

	res.State = StateDone
	res.Stats = snap.Stats
	r.log.Infow("restore complete",
		"courses", snap.Stats.Courses,
		"users", snap.Stats.Users,
		"safety_backup", safetyDir,
	)
	return res, nil
}

// wipe удаляет данные строго от листьев к корню.
// Пользователей не трогаем никогда.
func wipe(tx *gorm.DB) error {
	for _, target := range []struct {
		name  string
		model interface{}
	}{
		{"lesson progress", &models.UserLessonProgress{}},
		{"auth tokens", &models.AuthToken{}},
		{"mini-course purchases", &models.UserMiniCourse{}},
		{"enrollments", &models.UserCourse{}},
		{"blog posts", &models.BlogPost{}},
		{"materials", &models.Material{}},
		{"lessons", &models.Lesson{}},
		{"modules", &models.Module{}},
		{"courses", &models.Course{}},
	} {
		if err := tx.Where("1 = 1").Delete(target.model).Error; err != nil {
			return fmt.Errorf("wipe %s: %w", target.name, err)
		}
	}
	return nil
}

// reinstate вставляет данные от корня к листьям, уровнями, с сортировкой
// по позиции внутри родителя.
func reinstate(tx *gorm.DB, snap *Snapshot) error {
	if len(snap.BlogPosts) > 0 {
		if err := tx.Create(&snap.BlogPosts).Error; err != nil {
			return fmt.Errorf("restore blog posts: %w", err)
		}
	}

	for ci := range snap.Courses {
		course := snap.Courses[ci]
		modules := course.Modules

		if err := tx.Omit(clause.Associations).Create(&course).Error; err != nil {
			return fmt.Errorf("restore course %s: %w", course.ID, err)
		}

		sort.SliceStable(modules, func(i, j int) bool {
			return modules[i].Order < modules[j].Order
		})
		for mi := range modules {
			module := modules[mi]
			lessons := module.Lessons
			module.CourseID = course.ID

			if err := tx.Omit(clause.Associations).Create(&module).Error; err != nil {
				return fmt.Errorf("restore module %s: %w", module.ID, err)
			}

			sort.SliceStable(lessons, func(i, j int) bool {
				return lessons[i].Order < lessons[j].Order
			})
			for li := range lessons {
				lesson := lessons[li]
				materials := lesson.Materials
				lesson.ModuleID = module.ID

				if err := tx.Omit(clause.Associations).Create(&lesson).Error; err != nil {
					return fmt.Errorf("restore lesson %s: %w", lesson.ID, err)
				}

				for xi := range materials {
					materials[xi].LessonID = lesson.ID
				}
				if len(materials) > 0 {
					if err := tx.Create(&materials).Error; err != nil {
						return fmt.Errorf("restore materials of lesson %s: %w", lesson.ID, err)
					}
				}
			}
		}
	}

	// Пользователи — только upsert по id: обновить, если есть,
	// создать, если нет. Удалений не бывает.
	for _, u := range snap.Users {
		var existing models.User
		err := tx.First(&existing, "id = ?", u.ID).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"email": u.Email,
				"name":  u.Name,
				"role":  u.Role,
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("restore user %s: %w", u.ID, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user := models.User{
				ID:    u.ID,
				Email: u.Email,
				Name:  u.Name,
				Role:  u.Role,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("restore user %s: %w", u.ID, err)
			}
		default:
			return fmt.Errorf("restore user %s: %w", u.ID, err)
		}
	}

	if len(snap.UserCourses) > 0 {
		if err := tx.Create(&snap.UserCourses).Error; err != nil {
			return fmt.Errorf("restore enrollments: %w", err)
		}
	}
	if len(snap.UserMiniCourses) > 0 {
		if err := tx.Create(&snap.UserMiniCourses).Error; err != nil {
			return fmt.Errorf("restore mini-course purchases: %w", err)
		}
	}
	if len(snap.AuthTokens) > 0 {
		if err := tx.Create(&snap.AuthTokens).Error; err != nil {
			return fmt.Errorf("restore auth tokens: %w", err)
		}
	}
	if len(snap.UserLessonProgress) > 0 {
		if err := tx.Create(&snap.UserLessonProgress).Error; err != nil {
			return fmt.Errorf("restore lesson progress: %w", err)
		}
	}
	return nil
}
