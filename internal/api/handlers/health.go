// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bigkaa/innerpeace/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// historyPath — путь к файлу истории (для проверки FS)
	historyPath string
}

// NewHealthHandler создаёт обработчик health endpoints.
// Пустой historyPath отключает проверку файловой системы.
func NewHealthHandler(historyPath string) *HealthHandler {
	return &HealthHandler{
		version:     config.Version,
		historyPath: historyPath,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "innerpeace",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет: директория истории доступна на запись, файл истории читается.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	storageCheck := h.checkStorageDir()
	if storageCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	historyCheck := h.checkHistoryFile()
	if historyCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "innerpeace",
		"checks": map[string]any{
			"storage": storageCheck,
			"history": historyCheck,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// checkStorageDir проверяет доступность директории истории на запись.
func (h *HealthHandler) checkStorageDir() map[string]any {
	if h.historyPath == "" {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не настроена",
		}
	}

	dir := filepath.Dir(h.historyPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Директория истории недоступна: " + err.Error(),
		}
	}

	testFile := filepath.Join(dir, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Директория истории недоступна для записи: " + err.Error(),
		}
	}
	_ = os.Remove(testFile)

	check := map[string]any{
		"status": "ok",
	}
	if avail, err := diskAvailable(dir); err == nil {
		check["available_bytes"] = avail
	}
	return check
}

// checkHistoryFile проверяет, что файл истории отсутствует или читается.
func (h *HealthHandler) checkHistoryFile() map[string]any {
	if h.historyPath == "" {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не настроена",
		}
	}

	f, err := os.Open(h.historyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{
			"status":  "ok",
			"message": "Файл истории будет создан при первой записи",
		}
	}
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Файл истории недоступен для чтения: " + err.Error(),
		}
	}
	_ = f.Close()

	return map[string]any{
		"status": "ok",
	}
}
