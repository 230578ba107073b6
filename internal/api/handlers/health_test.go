package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("ошибка разбора ответа: %v", err)
	}
	return body
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler("")
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получено %d", rec.Code)
	}
	body := decodeHealth(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status: ожидалось 'ok', получено %v", body["status"])
	}
	if body["service"] != "innerpeace" {
		t.Errorf("service: ожидалось 'innerpeace', получено %v", body["service"])
	}
}

func TestHealthReady_OK(t *testing.T) {
	dir := t.TempDir()
	h := NewHealthHandler(filepath.Join(dir, "nested", "history.json"))

	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получено %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "nested", ".health_check")); !os.IsNotExist(err) {
		t.Error("пробный файл .health_check должен быть удалён")
	}
}

func TestHealthReady_HistoryUnreadable(t *testing.T) {
	dir := t.TempDir()
	// Родитель файла истории — обычный файл
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}
	h := NewHealthHandler(filepath.Join(blocker, "history.json"))

	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ожидался статус 503, получено %d", rec.Code)
	}
	body := decodeHealth(t, rec)
	if body["status"] != "fail" {
		t.Errorf("status: ожидалось 'fail', получено %v", body["status"])
	}
	checks, ok := body["checks"].(map[string]any)
	if !ok {
		t.Fatalf("ожидалось поле checks, получено %v", body["checks"])
	}
	storage, _ := checks["storage"].(map[string]any)
	if storage["status"] != "fail" {
		t.Errorf("checks.storage: ожидалось 'fail', получено %v", storage["status"])
	}
}
