// Пакет recordstore — файловое хранилище записей журнала.
// Файл истории — единый JSON-массив записей, который является
// единственным источником истины. Каждое изменение перезаписывает
// весь массив атомарно: temp → fsync → rename.
//
// Ожидаемые сбои (I/O, сериализация, невалидная запись) не возвращаются
// как ошибки: методы отдают bool/пустой результат и пишут в лог.
// Исключение — Remove, который отделяет отсутствие записи от сбоя I/O.
package recordstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/bigkaa/innerpeace/internal/domain/model"
)

// lockSuffix — суффикс файла advisory-блокировки.
const lockSuffix = ".lock"

var (
	// errMalformed — содержимое файла истории не разбирается.
	errMalformed = errors.New("ошибка десериализации")
	// errLockFailed — не удалось захватить блокировку (причина в логе).
	errLockFailed = errors.New("не удалось захватить блокировку истории")
)

// Store — хранилище записей в одном JSON-файле.
// Вызовы одного Store сериализуются мьютексом; между процессами
// блокировка выполняется только с WithFileLock.
type Store struct {
	path     string
	logger   *slog.Logger
	newID    func() string
	fileLock bool

	mu sync.Mutex
}

// Option — параметр конструктора Store.
type Option func(*Store)

// WithIDGenerator задаёт генератор идентификаторов (по умолчанию UUID v4).
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithFileLock включает advisory-блокировку <path>.lock на время
// чтения-изменения-записи.
func WithFileLock() Option {
	return func(s *Store) {
		s.fileLock = true
	}
}

// New создаёт хранилище для файла path. Файл создаётся при первой записи.
func New(path string, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		logger: logger.With(slog.String("component", "recordstore")),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path возвращает путь к файлу истории.
func (s *Store) Path() string {
	return s.path
}

// Append добавляет запись в конец истории.
// Пустой ID заменяется новым. Возвращает false, если запись невалидна,
// ID уже занят или запись на диск не удалась; файл при этом не меняется.
func (s *Store) Append(rec model.Record) bool {
	if err := rec.Validate(); err != nil {
		s.logger.Warn("Запись отклонена", slog.String("error", err.Error()))
		return false
	}

	unlock, ok := s.lock()
	if !ok {
		return false
	}
	defer unlock()

	records, _, err := s.read()
	if err != nil {
		// Повреждённый файл трактуется как пустая история
		s.logger.Error("Файл истории повреждён, будет перезаписан",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		records = nil
	}

	if rec.ID == "" {
		rec.ID = s.newID()
	}
	for _, r := range records {
		if r.ID == rec.ID {
			s.logger.Warn("Запись с таким ID уже существует", slog.String("id", rec.ID))
			return false
		}
	}
	if rec.Type == model.TypeSOS && rec.Grounding == nil {
		rec.Grounding = model.Grounding{}
	}

	records = append(records, rec)
	if err := s.write(records); err != nil {
		s.logger.Error("Ошибка сохранения записи",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.logger.Debug("Запись сохранена",
		slog.String("id", rec.ID),
		slog.String("type", string(rec.Type)),
	)
	return true
}

// LoadAll возвращает все записи в порядке добавления.
// Отсутствующий файл — пустая история. Записям без ID назначается
// новый ID, и при наличии таких записей файл перезаписывается один раз.
// Нечитаемый или повреждённый файл — пустая история (ошибка в лог).
func (s *Store) LoadAll() []model.Record {
	unlock, ok := s.lock()
	if !ok {
		return []model.Record{}
	}
	defer unlock()

	records, migrated, err := s.read()
	if err != nil {
		s.logger.Error("Ошибка чтения истории",
			slog.String("path", s.path),
			slog.String("error", err.Error()),
		)
		return []model.Record{}
	}

	if migrated > 0 {
		if err := s.write(records); err != nil {
			s.logger.Error("Ошибка сохранения миграции ID",
				slog.Int("migrated", migrated),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Info("Назначены ID записям без идентификатора",
				slog.Int("migrated", migrated),
			)
		}
	}

	if records == nil {
		return []model.Record{}
	}
	return records
}

// DeleteByID удаляет одну запись с указанным ID.
// Возвращает false, если записи нет (файл не меняется) или запись не удалась.
func (s *Store) DeleteByID(id string) bool {
	found, err := s.Remove(id)
	if err != nil {
		s.logger.Error("Ошибка удаления записи",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
	}
	return found && err == nil
}

// Remove удаляет запись по ID за одно чтение файла.
// (false, nil) — записи нет: ID пуст, файла нет или файл повреждён
// (повреждённый файл читается как пустая история). Файл при этом не
// меняется, отложенная миграция ID не выполняется.
// Ошибка возвращается только при сбое I/O или блокировки.
func (s *Store) Remove(id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	unlock, ok := s.lock()
	if !ok {
		return false, errLockFailed
	}
	defer unlock()

	records, _, err := s.read()
	if errors.Is(err, errMalformed) {
		s.logger.Error("Ошибка чтения истории при удалении",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	idx := slices.IndexFunc(records, func(r model.Record) bool { return r.ID == id })
	if idx < 0 {
		return false, nil
	}

	if err := s.write(slices.Delete(records, idx, idx+1)); err != nil {
		return false, err
	}

	s.logger.Debug("Запись удалена", slog.String("id", id))
	return true, nil
}

// lock захватывает мьютекс и, при WithFileLock, файловую блокировку.
func (s *Store) lock() (func(), bool) {
	s.mu.Lock()
	if !s.fileLock {
		return s.mu.Unlock, true
	}

	if err := ensureDir(s.path); err != nil {
		s.mu.Unlock()
		s.logger.Error("Ошибка подготовки директории", slog.String("error", err.Error()))
		return nil, false
	}
	release, err := lockFile(s.path + lockSuffix)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("Ошибка файловой блокировки",
			slog.String("path", s.path+lockSuffix),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return func() {
		release()
		s.mu.Unlock()
	}, true
}

// read читает массив записей и назначает ID записям без него.
// Возвращает количество мигрированных записей.
func (s *Store) read() ([]model.Record, int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("ошибка чтения %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, 0, nil
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("%w %s: %w", errMalformed, s.path, err)
	}

	migrated := 0
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = s.newID()
			migrated++
		}
	}
	return records, migrated, nil
}

// write атомарно перезаписывает файл истории.
// Паттерн: JSON → temp файл → fsync → atomic rename.
func (s *Store) write(records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("ошибка сериализации истории: %w", err)
	}

	if err := ensureDir(s.path); err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка записи: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка fsync: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("ошибка атомарного переименования: %w", err)
	}

	return nil
}

// ensureDir создаёт родительскую директорию файла.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}
	return nil
}
