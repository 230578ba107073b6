// handler.go — APIHandler собирает доменные handlers и монтирует
// их на chi-роутер.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/innerpeace/internal/api/errors"
)

// APIHandler — единая точка регистрации всех endpoints.
type APIHandler struct {
	journal *JournalHandler
	health  *HealthHandler
	metrics http.Handler
}

// NewAPIHandler создаёт единый handler для всех endpoints.
// metrics — обработчик /metrics (обычно promhttp.Handler()).
func NewAPIHandler(journal *JournalHandler, health *HealthHandler, metrics http.Handler) *APIHandler {
	return &APIHandler{
		journal: journal,
		health:  health,
		metrics: metrics,
	}
}

// Mount регистрирует маршруты на роутере.
func (h *APIHandler) Mount(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.NotFound(w, "Маршрут не найден")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.MethodNotAllowed(w, "Метод не поддерживается")
	})

	// --- Journal ---
	r.Post("/api/save_sos", h.journal.SaveSOS)
	r.Post("/api/save_abcde", h.journal.SaveABCDE)
	r.Get("/api/get_question", h.journal.GetQuestion)
	r.Get("/api/history", h.journal.ListHistory)
	r.Delete("/api/delete_record/{id}", h.journal.DeleteRecord)

	// --- Health ---
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)

	// --- Metrics ---
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}
}
