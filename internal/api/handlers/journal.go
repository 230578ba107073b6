// journal.go — HTTP handlers журнала: сохранение SOS/ABCDE,
// история, удаление, выдача вопроса.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/bigkaa/innerpeace/internal/api/errors"
	"github.com/bigkaa/innerpeace/internal/domain/model"
	"github.com/bigkaa/innerpeace/internal/service"
)

// IdempotencyHeader — заголовок ключа идемпотентности.
const IdempotencyHeader = "Idempotency-Key"

// statusSuccess — значение поля status в успешных ответах.
const statusSuccess = "success"

// maxBodyBytes — ограничение размера тела запроса (1 MB).
const maxBodyBytes = 1 << 20

// JournalService — операции журнала, используемые handlers.
type JournalService interface {
	SaveSOS(req service.SOSRequest, idemKey string) (string, *service.ServiceError)
	SaveABCDE(req service.ABCDERequest, idemKey string) (string, *service.ServiceError)
	History(limit int) []model.Record
	Delete(id string) *service.ServiceError
	Question() string
}

// JournalHandler — обработчик endpoints журнала.
type JournalHandler struct {
	svc JournalService
}

// NewJournalHandler создаёт обработчик endpoints журнала.
func NewJournalHandler(svc JournalService) *JournalHandler {
	return &JournalHandler{svc: svc}
}

// saveResponse — ответ на успешное сохранение.
type saveResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// SaveSOS обрабатывает POST /api/save_sos.
func (h *JournalHandler) SaveSOS(w http.ResponseWriter, r *http.Request) {
	var req service.SOSRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, svcErr := h.svc.SaveSOS(req, r.Header.Get(IdempotencyHeader))
	if svcErr != nil {
		errors.WriteError(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, saveResponse{Status: statusSuccess, ID: id})
}

// SaveABCDE обрабатывает POST /api/save_abcde.
func (h *JournalHandler) SaveABCDE(w http.ResponseWriter, r *http.Request) {
	var req service.ABCDERequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, svcErr := h.svc.SaveABCDE(req, r.Header.Get(IdempotencyHeader))
	if svcErr != nil {
		errors.WriteError(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	writeJSON(w, http.StatusCreated, saveResponse{Status: statusSuccess, ID: id})
}

// GetQuestion обрабатывает GET /api/get_question.
func (h *JournalHandler) GetQuestion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"question": h.svc.Question()})
}

// ListHistory обрабатывает GET /api/history.
// Параметр limit (опционально) ограничивает количество записей.
func (h *JournalHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errors.ValidationError(w, "Параметр limit должен быть положительным целым числом")
			return
		}
		limit = n
	}

	records := h.svc.History(limit)
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// DeleteRecord обрабатывает DELETE /api/delete_record/{id}.
func (h *JournalHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный параметр id: %s", err.Error()))
		return
	}

	if svcErr := h.svc.Delete(id); svcErr != nil {
		errors.WriteError(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": statusSuccess})
}

// decodeBody разбирает JSON-тело запроса. При ошибке пишет 400 и возвращает false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return false
	}
	return true
}

// writeJSON записывает JSON-ответ без HTML-экранирования.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
