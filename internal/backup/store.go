package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const snapshotFile = "backup.json"

var ErrInvalidSnapshot = errors.New("invalid snapshot document")

// Store пишет и читает снапшоты на диске. Каждый снапшот лежит в
// отдельном каталоге, названном по таймштампу.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

// Write создаёт новый каталог под снапшот и сохраняет туда документ.
// Возвращает путь к каталогу.
func (st *Store) Write(snap *Snapshot) (string, error) {
	name := time.Now().UTC().Format("20060102-150405")
	dir := filepath.Join(st.root, name)
	// Два бэкапа в одну секунду — редкость, но затирать нечего
	for i := 2; ; i++ {
		if _, err := os.Stat(dir); err != nil {
			// Каталога нет (или корень вообще не каталог — тогда
			// ошибку честно вернёт MkdirAll ниже)
			break
		}
		dir = filepath.Join(st.root, fmt.Sprintf("%s-%d", name, i))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, snapshotFile), data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return dir, nil
}

// Read загружает снапшот из каталога и проверяет структурную целостность:
// обязательные коллекции должны присутствовать (пустые — можно, отсутствующие —
// нет), метаданные — парситься.
func (st *Store) Read(dir string) (*Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, snapshotFile))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	for _, key := range []string{"timestamp", "stats", "courses", "users", "userCourses"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("%w: missing %q collection", ErrInvalidSnapshot, key)
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if _, err := time.Parse(time.RFC3339, snap.Timestamp); err != nil {
		return nil, fmt.Errorf("%w: bad timestamp %q", ErrInvalidSnapshot, snap.Timestamp)
	}
	return &snap, nil
}
