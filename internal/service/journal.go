// Пакет service — бизнес-логика Inner-Peace.
// journal.go — сервис журнала: сохранение записей SOS и ABCDE,
// история, удаление, выдача рефлексивного вопроса.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apierrors "github.com/bigkaa/innerpeace/internal/api/errors"
	"github.com/bigkaa/innerpeace/internal/domain/model"
	"github.com/bigkaa/innerpeace/internal/domain/wizard"
)

// Операции для ключей идемпотентности.
const (
	opSaveSOS   = "save_sos"
	opSaveABCDE = "save_abcde"
)

// Бизнес-метрики журнала.
var (
	// RecordsSavedTotal — попытки сохранения записей.
	RecordsSavedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ip_records_saved_total",
			Help: "Количество попыток сохранения записей журнала",
		},
		[]string{"type", "result"},
	)

	// RecordsDeletedTotal — попытки удаления записей.
	RecordsDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ip_records_deleted_total",
			Help: "Количество попыток удаления записей журнала",
		},
		[]string{"result"},
	)

	// BreathingSessionsTotal — завершённые дыхательные сессии по курсам.
	BreathingSessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ip_breathing_sessions_total",
			Help: "Количество дыхательных сессий по курсу и результату",
		},
		[]string{"course", "result"},
	)
)

// ErrNotFound — запись с указанным ID отсутствует.
var ErrNotFound = errors.New("запись не найдена")

// ErrPersistence — хранилище не приняло изменение.
var ErrPersistence = errors.New("ошибка сохранения в хранилище")

// ServiceError — ошибка сервиса с HTTP-кодом.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Store — хранилище записей журнала.
type Store interface {
	Append(rec model.Record) bool
	LoadAll() []model.Record
	// Remove: (false, nil) — записи нет, ошибка — сбой хранилища.
	Remove(id string) (bool, error)
}

// QuestionSource — пул рефлексивных вопросов.
type QuestionSource interface {
	Draw() string
}

// SOSRequest — данные завершённой дыхательной сессии.
type SOSRequest struct {
	Course    string            `json:"course"`
	Memo      string            `json:"memo"`
	Grounding map[string]string `json:"grounding"`
}

// ABCDERequest — ответы тренировки ABCDE.
type ABCDERequest struct {
	Adversity   string `json:"adversity"`
	Belief      string `json:"belief"`
	Consequence int    `json:"consequence"`
	Disputation string `json:"disputation"`
	Effect      string `json:"effect"`
	Memo        string `json:"memo"`
}

// JournalService — сервис журнала поверх Store.
type JournalService struct {
	store     Store
	questions QuestionSource
	requireAB bool
	idem      *IdempotencyCache
	now       func() time.Time
	logger    *slog.Logger

	// idemMu сериализует проверку и сохранение запросов с ключом идемпотентности
	idemMu sync.Mutex
}

// JournalOption — параметр конструктора JournalService.
type JournalOption func(*JournalService)

// WithRequiredAdversityBelief включает обязательность adversity и belief.
func WithRequiredAdversityBelief(required bool) JournalOption {
	return func(s *JournalService) {
		s.requireAB = required
	}
}

// WithIdempotency подключает кэш Idempotency-Key.
func WithIdempotency(c *IdempotencyCache) JournalOption {
	return func(s *JournalService) {
		s.idem = c
	}
}

// WithClock задаёт источник времени для поля date.
func WithClock(now func() time.Time) JournalOption {
	return func(s *JournalService) {
		s.now = now
	}
}

// NewJournalService создаёт сервис журнала.
func NewJournalService(store Store, questions QuestionSource, logger *slog.Logger, opts ...JournalOption) *JournalService {
	s := &JournalService{
		store:     store,
		questions: questions,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "journal")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveSOS сохраняет запись дыхательной сессии и возвращает её ID.
// Ключи grounding ограничены пятью чувствами.
func (s *JournalService) SaveSOS(req SOSRequest, idemKey string) (string, *ServiceError) {
	for k := range req.Grounding {
		if !slices.Contains(model.Senses, k) {
			return "", validationError(fmt.Sprintf("Недопустимый ключ grounding: %q", k), nil)
		}
	}

	return s.withIdempotency(opSaveSOS, idemKey, func() (string, *ServiceError) {
		rec := model.NewSOS(req.Course, req.Memo, req.Grounding, s.now())
		if !s.store.Append(rec) {
			RecordsSavedTotal.WithLabelValues(string(model.TypeSOS), "error").Inc()
			return "", persistenceError()
		}

		RecordsSavedTotal.WithLabelValues(string(model.TypeSOS), "success").Inc()
		s.logger.Info("Сохранена запись SOS",
			slog.String("id", rec.ID),
			slog.String("course", rec.Course),
		)
		return rec.ID, nil
	})
}

// SaveABCDE сохраняет запись тренировки ABCDE и возвращает её ID.
// Ответы проходят через тот же мастер, что и консольный сценарий.
func (s *JournalService) SaveABCDE(req ABCDERequest, idemKey string) (string, *ServiceError) {
	if !model.ValidConsequence(req.Consequence) {
		return "", validationError(wizard.ErrInvalidConsequence.Error(), wizard.ErrInvalidConsequence)
	}

	return s.withIdempotency(opSaveABCDE, idemKey, func() (string, *ServiceError) {
		w := wizard.New(s.questions, s.store,
			wizard.WithRequiredAdversityBelief(s.requireAB),
			wizard.WithClock(s.now),
		)
		answers := []string{
			req.Adversity,
			req.Belief,
			strconv.Itoa(req.Consequence),
			req.Disputation,
			req.Effect,
			req.Memo,
		}
		for _, a := range answers {
			if err := w.Submit(a); err != nil {
				return "", validationError(err.Error(), err)
			}
		}

		rec, err := w.Confirm(true)
		switch {
		case errors.Is(err, wizard.ErrMissingRequired):
			return "", validationError(err.Error(), err)
		case err != nil:
			RecordsSavedTotal.WithLabelValues(string(model.TypeABCDE), "error").Inc()
			return "", persistenceError()
		}

		RecordsSavedTotal.WithLabelValues(string(model.TypeABCDE), "success").Inc()
		s.logger.Info("Сохранена запись ABCDE",
			slog.String("id", rec.ID),
			slog.Int("consequence", rec.Consequence),
		)
		return rec.ID, nil
	})
}

// History возвращает записи от новых к старым по date.
// Записи с равной датой остаются в порядке добавления.
// limit <= 0 — без ограничения.
func (s *JournalService) History(limit int) []model.Record {
	records := s.store.LoadAll()
	slices.SortStableFunc(records, func(a, b model.Record) int {
		switch {
		case a.Date > b.Date:
			return -1
		case a.Date < b.Date:
			return 1
		default:
			return 0
		}
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Delete удаляет запись по ID.
func (s *JournalService) Delete(id string) *ServiceError {
	found, err := s.store.Remove(id)
	if err != nil {
		RecordsDeletedTotal.WithLabelValues("error").Inc()
		s.logger.Error("Ошибка удаления записи",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return persistenceError()
	}
	if found {
		RecordsDeletedTotal.WithLabelValues("success").Inc()
		if s.idem != nil {
			s.idem.Forget(id)
		}
		s.logger.Info("Запись удалена", slog.String("id", id))
		return nil
	}

	RecordsDeletedTotal.WithLabelValues("not_found").Inc()
	return &ServiceError{
		StatusCode: http.StatusNotFound,
		Code:       apierrors.CodeNotFound,
		Message:    fmt.Sprintf("Запись %s не найдена", id),
		Err:        ErrNotFound,
	}
}

// Question возвращает случайный рефлексивный вопрос.
func (s *JournalService) Question() string {
	return s.questions.Draw()
}

// withIdempotency выполняет save не более одного раза на ключ в пределах TTL.
func (s *JournalService) withIdempotency(op, key string, save func() (string, *ServiceError)) (string, *ServiceError) {
	if key == "" || s.idem == nil {
		return save()
	}

	s.idemMu.Lock()
	defer s.idemMu.Unlock()

	if id, ok := s.idem.Lookup(op, key); ok {
		s.logger.Debug("Повторный запрос с Idempotency-Key",
			slog.String("op", op),
			slog.String("id", id),
		)
		return id, nil
	}

	id, svcErr := save()
	if svcErr != nil {
		return "", svcErr
	}
	s.idem.Remember(op, key, id)
	return id, nil
}

// RecordBreathingSession учитывает дыхательную сессию в метриках.
// result: done или cancelled.
func RecordBreathingSession(course int, result string) {
	BreathingSessionsTotal.WithLabelValues(strconv.Itoa(course), result).Inc()
}

func validationError(message string, err error) *ServiceError {
	return &ServiceError{
		StatusCode: http.StatusBadRequest,
		Code:       apierrors.CodeValidationError,
		Message:    message,
		Err:        err,
	}
}

func persistenceError() *ServiceError {
	return &ServiceError{
		StatusCode: http.StatusInternalServerError,
		Code:       apierrors.CodeInternalError,
		Message:    "Не удалось сохранить изменения в файле истории",
		Err:        ErrPersistence,
	}
}
