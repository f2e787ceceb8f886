package reconcile

import (
	"github.com/google/uuid"

	"github.com/s/coursePortal/internal/models"
)

// DiffModules сравнивает сохранённые модули курса с присланным списком
// и строит план create/update/delete.
//
// Сопоставление — строго по id: записи с разными id никогда не
// склеиваются, даже если содержимое совпадает. Присланная запись с
// неизвестным (или пустым) id — создание; сохранённая запись, чьего id
// нет среди присланных, — удаление.
//
// incoming == nil означает, что клиент не прислал поле modules вовсе:
// набор модулей считается неизменным, план пустой.
func DiffModules(courseID string, persisted []models.Module, incoming *[]ModuleInput) ModulePlan {
	var plan ModulePlan
	if incoming == nil {
		return plan
	}

	existing := make(map[string]models.Module, len(persisted))
	for _, m := range persisted {
		existing[m.ID] = m
	}

	seen := make(map[string]bool, len(*incoming))
	for i := range *incoming {
		in := &(*incoming)[i]

		// Позиция в массиве — источник истины для порядка,
		// но явное поле order, если прислано, важнее.
		pos := i
		if in.Order != nil {
			pos = *in.Order
		}

		if in.ID != "" {
			if cur, ok := existing[in.ID]; ok {
				seen[in.ID] = true
				if fields := moduleChanges(cur, in, pos); len(fields) > 0 {
					plan.Update = append(plan.Update, FieldUpdate{ID: in.ID, Fields: fields})
				}
				continue
			}
		}

		// Новому модулю id выдаём прямо здесь, чтобы вложенные уроки
		// могли сослаться на него ещё до вставки.
		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		plan.Create = append(plan.Create, models.Module{
			ID:             in.ID,
			CourseID:       courseID,
			Title:          in.Title,
			Description:    in.Description,
			Order:          pos,
			Completed:      in.Completed,
			VideoLibraryID: in.VideoLibraryID,
		})
	}

	for _, m := range persisted {
		if !seen[m.ID] {
			plan.Delete = append(plan.Delete, m.ID)
		}
	}
	return plan
}

// DiffLessons — то же самое на уровень ниже: уроки одного модуля.
func DiffLessons(moduleID string, persisted []models.Lesson, incoming *[]LessonInput) LessonPlan {
	var plan LessonPlan
	if incoming == nil {
		return plan
	}

	existing := make(map[string]models.Lesson, len(persisted))
	for _, l := range persisted {
		existing[l.ID] = l
	}

	seen := make(map[string]bool, len(*incoming))
	for i := range *incoming {
		in := &(*incoming)[i]

		pos := i
		if in.Order != nil {
			pos = *in.Order
		}

		if in.ID != "" {
			if cur, ok := existing[in.ID]; ok {
				seen[in.ID] = true
				if fields := lessonChanges(cur, in, pos); len(fields) > 0 {
					plan.Update = append(plan.Update, FieldUpdate{ID: in.ID, Fields: fields})
				}
				continue
			}
		}

		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		plan.Create = append(plan.Create, models.Lesson{
			ID:             in.ID,
			ModuleID:       moduleID,
			Title:          in.Title,
			Description:    in.Description,
			Duration:       in.Duration,
			VideoURL:       in.VideoURL,
			VideoLibraryID: in.VideoLibraryID,
			Order:          pos,
			Completed:      in.Completed,
		})
	}

	for _, l := range persisted {
		if !seen[l.ID] {
			plan.Delete = append(plan.Delete, l.ID)
		}
	}
	return plan
}

// DiffMaterials — материалы урока. Порядка у материалов нет.
// Материалы типов pdf и link без непустого url не проходят валидацию:
// такая запись пропускается с причиной, а не валит весь план —
// один битый материал не должен блокировать сохранение урока.
func DiffMaterials(lessonID string, persisted []models.Material, incoming *[]MaterialInput) MaterialPlan {
	var plan MaterialPlan
	if incoming == nil {
		return plan
	}

	existing := make(map[string]models.Material, len(persisted))
	for _, m := range persisted {
		existing[m.ID] = m
	}

	seen := make(map[string]bool, len(*incoming))
	for i := range *incoming {
		in := &(*incoming)[i]

		if reason, ok := validateMaterial(in); !ok {
			// Запись с известным id помечаем как увиденную, чтобы
			// валидация не превратилась в удаление.
			if _, exists := existing[in.ID]; exists {
				seen[in.ID] = true
			}
			plan.Skipped = append(plan.Skipped, SkippedNode{
				Level:  "material",
				ID:     in.ID,
				Title:  in.Title,
				Reason: reason,
			})
			continue
		}

		if in.ID != "" {
			if cur, ok := existing[in.ID]; ok {
				seen[in.ID] = true
				if fields := materialChanges(cur, in); len(fields) > 0 {
					plan.Update = append(plan.Update, FieldUpdate{ID: in.ID, Fields: fields})
				}
				continue
			}
		}

		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		plan.Create = append(plan.Create, models.Material{
			ID:       in.ID,
			LessonID: lessonID,
			Title:    in.Title,
			Type:     in.Type,
			URL:      in.URL,
			Content:  in.Content,
		})
	}

	for _, m := range persisted {
		if !seen[m.ID] {
			plan.Delete = append(plan.Delete, m.ID)
		}
	}
	return plan
}

func validateMaterial(in *MaterialInput) (string, bool) {
	switch in.Type {
	case models.MaterialPDF, models.MaterialLink:
		if in.URL == nil || *in.URL == "" {
			return "material of type " + in.Type + " requires a non-empty url", false
		}
	}
	return "", true
}

// moduleChanges возвращает только реально изменившиеся колонки.
// Пустая карта — запись не изменилась; повторный прогон диффа по
// результату применения даёт пустой план.
func moduleChanges(cur models.Module, in *ModuleInput, pos int) map[string]interface{} {
	fields := map[string]interface{}{}
	if cur.Title != in.Title {
		fields["title"] = in.Title
	}
	if !eqStrPtr(cur.Description, in.Description) {
		fields["description"] = in.Description
	}
	if cur.Order != pos {
		fields["position"] = pos
	}
	if cur.Completed != in.Completed {
		fields["completed"] = in.Completed
	}
	if !eqStrPtr(cur.VideoLibraryID, in.VideoLibraryID) {
		fields["video_library_id"] = in.VideoLibraryID
	}
	return fields
}

func lessonChanges(cur models.Lesson, in *LessonInput, pos int) map[string]interface{} {
	fields := map[string]interface{}{}
	if cur.Title != in.Title {
		fields["title"] = in.Title
	}
	if !eqStrPtr(cur.Description, in.Description) {
		fields["description"] = in.Description
	}
	if cur.Duration != in.Duration {
		fields["duration"] = in.Duration
	}
	if cur.VideoURL != in.VideoURL {
		fields["video_url"] = in.VideoURL
	}
	if !eqStrPtr(cur.VideoLibraryID, in.VideoLibraryID) {
		fields["video_library_id"] = in.VideoLibraryID
	}
	if cur.Order != pos {
		fields["position"] = pos
	}
	if cur.Completed != in.Completed {
		fields["completed"] = in.Completed
	}
	return fields
}

func materialChanges(cur models.Material, in *MaterialInput) map[string]interface{} {
	fields := map[string]interface{}{}
	if cur.Title != in.Title {
		fields["title"] = in.Title
	}
	if cur.Type != in.Type {
		fields["type"] = in.Type
	}
	if !eqStrPtr(cur.URL, in.URL) {
		fields["url"] = in.URL
	}
	if !eqStrPtr(cur.Content, in.Content) {
		fields["content"] = in.Content
	}
	return fields
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
