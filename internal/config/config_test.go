package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allIPEnvVars — все переменные конфигурации.
var allIPEnvVars = []string{
	"IP_PORT", "IP_HISTORY_FILE", "IP_QUESTIONS_FILE",
	"IP_LOG_LEVEL", "IP_LOG_FORMAT", "IP_STORE_FILE_LOCK",
	"IP_REQUIRE_ADVERSITY_BELIEF", "IP_IDEMPOTENCY_TTL",
	"IP_IDEMPOTENCY_SIZE", "IP_SHUTDOWN_TIMEOUT", "IP_DOTENV",
}

// clearAllIPEnvVars очищает все переменные IP_* и отключает .env.
// Исходные значения восстанавливает t.Setenv.
func clearAllIPEnvVars(t *testing.T) {
	t.Helper()
	for _, k := range allIPEnvVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("IP_DOTENV", "false")
}

func TestLoad_DefaultValues(t *testing.T) {
	clearAllIPEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: ожидалось 8080, получено %d", cfg.Port)
	}
	if cfg.HistoryFile != "inner_peace_history.json" {
		t.Errorf("HistoryFile: ожидалось 'inner_peace_history.json', получено %q", cfg.HistoryFile)
	}
	if cfg.QuestionsFile != "" {
		t.Errorf("QuestionsFile: ожидалась пустая строка, получено %q", cfg.QuestionsFile)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось INFO, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось 'json', получено %q", cfg.LogFormat)
	}
	if cfg.StoreFileLock {
		t.Error("StoreFileLock: ожидалось false")
	}
	if !cfg.RequireAdversityBelief {
		t.Error("RequireAdversityBelief: ожидалось true")
	}
	if cfg.IdempotencyTTL != 10*time.Minute {
		t.Errorf("IdempotencyTTL: ожидалось 10m, получено %v", cfg.IdempotencyTTL)
	}
	if cfg.IdempotencySize != 1024 {
		t.Errorf("IdempotencySize: ожидалось 1024, получено %d", cfg.IdempotencySize)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 5s, получено %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_AllCustomValues(t *testing.T) {
	clearAllIPEnvVars(t)
	vars := map[string]string{
		"IP_PORT":                     "9090",
		"IP_HISTORY_FILE":             "/var/lib/innerpeace/history.json",
		"IP_QUESTIONS_FILE":           "/etc/innerpeace/questions.yaml",
		"IP_LOG_LEVEL":                "debug",
		"IP_LOG_FORMAT":               "text",
		"IP_STORE_FILE_LOCK":          "true",
		"IP_REQUIRE_ADVERSITY_BELIEF": "false",
		"IP_IDEMPOTENCY_TTL":          "30s",
		"IP_IDEMPOTENCY_SIZE":         "64",
		"IP_SHUTDOWN_TIMEOUT":         "15s",
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port: ожидалось 9090, получено %d", cfg.Port)
	}
	if cfg.HistoryFile != "/var/lib/innerpeace/history.json" {
		t.Errorf("HistoryFile: получено %q", cfg.HistoryFile)
	}
	if cfg.QuestionsFile != "/etc/innerpeace/questions.yaml" {
		t.Errorf("QuestionsFile: получено %q", cfg.QuestionsFile)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось DEBUG, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat: ожидалось 'text', получено %q", cfg.LogFormat)
	}
	if !cfg.StoreFileLock {
		t.Error("StoreFileLock: ожидалось true")
	}
	if cfg.RequireAdversityBelief {
		t.Error("RequireAdversityBelief: ожидалось false")
	}
	if cfg.IdempotencyTTL != 30*time.Second {
		t.Errorf("IdempotencyTTL: ожидалось 30s, получено %v", cfg.IdempotencyTTL)
	}
	if cfg.IdempotencySize != 64 {
		t.Errorf("IdempotencySize: ожидалось 64, получено %d", cfg.IdempotencySize)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 15s, получено %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"IP_PORT", "abc"},
		{"IP_PORT", "0"},
		{"IP_PORT", "70000"},
		{"IP_LOG_LEVEL", "trace"},
		{"IP_LOG_FORMAT", "xml"},
		{"IP_STORE_FILE_LOCK", "maybe"},
		{"IP_REQUIRE_ADVERSITY_BELIEF", "да"},
		{"IP_IDEMPOTENCY_TTL", "10"},
		{"IP_IDEMPOTENCY_TTL", "-1m"},
		{"IP_IDEMPOTENCY_SIZE", "0"},
		{"IP_SHUTDOWN_TIMEOUT", "soon"},
		{"IP_DOTENV", "sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearAllIPEnvVars(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadDotenv(t *testing.T) {
	clearAllIPEnvVars(t)
	dir := t.TempDir()

	envFile := filepath.Join(dir, ".env")
	content := "IP_PORT=7070\nIP_HISTORY_FILE=from-dotenv.json\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("ошибка записи: %v", err)
	}

	// Уже заданная переменная не перезаписывается
	t.Setenv("IP_HISTORY_FILE", "from-env.json")

	if err := LoadDotenv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("IP_PORT") })

	if got := os.Getenv("IP_PORT"); got != "7070" {
		t.Errorf("IP_PORT: ожидалось 7070, получено %q", got)
	}
	if got := os.Getenv("IP_HISTORY_FILE"); got != "from-env.json" {
		t.Errorf("IP_HISTORY_FILE: ожидалось from-env.json, получено %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		err   bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"fatal", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		if (err != nil) != tt.err {
			t.Errorf("parseLogLevel(%q): ошибка %v, ожидалась ошибка: %v", tt.input, err, tt.err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q): ожидалось %v, получено %v", tt.input, tt.want, got)
		}
	}
}
