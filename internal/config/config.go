// Пакет config — загрузка и валидация конфигурации Inner-Peace
// из переменных окружения (с необязательными .env файлами).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultHistoryFile — файл истории по умолчанию (в рабочей директории).
const DefaultHistoryFile = "inner_peace_history.json"

// DotenvFiles — файлы, из которых подгружаются переменные окружения.
// Уже заданные переменные не переопределяются.
var DotenvFiles = []string{".env.local", ".env"}

// Config содержит все параметры конфигурации Inner-Peace.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к JSON-файлу истории
	HistoryFile string
	// YAML-файл с пулом вопросов (пусто — встроенный набор)
	QuestionsFile string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Межпроцессная flock-блокировка файла истории
	StoreFileLock bool
	// Обязательность adversity и belief при сохранении ABCDE через HTTP
	RequireAdversityBelief bool
	// Время жизни ключа Idempotency-Key
	IdempotencyTTL time.Duration
	// Максимальное количество ключей Idempotency-Key в памяти
	IdempotencySize int
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
// При IP_DOTENV=true (по умолчанию) сначала подгружаются DotenvFiles.
func Load() (*Config, error) {
	dotenv, err := getEnvBool("IP_DOTENV", true)
	if err != nil {
		return nil, fmt.Errorf("IP_DOTENV: %w", err)
	}
	if dotenv {
		if err := LoadDotenv(DotenvFiles...); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}

	// IP_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("IP_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("IP_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("IP_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// IP_HISTORY_FILE — файл истории
	cfg.HistoryFile = getEnvDefault("IP_HISTORY_FILE", DefaultHistoryFile)

	// IP_QUESTIONS_FILE — файл вопросов (опционально)
	cfg.QuestionsFile = getEnvDefault("IP_QUESTIONS_FILE", "")

	// IP_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("IP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("IP_LOG_LEVEL: %w", err)
	}

	// IP_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("IP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("IP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// IP_STORE_FILE_LOCK — flock на время чтения-изменения-записи (по умолчанию false)
	cfg.StoreFileLock, err = getEnvBool("IP_STORE_FILE_LOCK", false)
	if err != nil {
		return nil, fmt.Errorf("IP_STORE_FILE_LOCK: %w", err)
	}

	// IP_REQUIRE_ADVERSITY_BELIEF — обязательность A и B (по умолчанию true)
	cfg.RequireAdversityBelief, err = getEnvBool("IP_REQUIRE_ADVERSITY_BELIEF", true)
	if err != nil {
		return nil, fmt.Errorf("IP_REQUIRE_ADVERSITY_BELIEF: %w", err)
	}

	// IP_IDEMPOTENCY_TTL — время жизни ключа (по умолчанию 10m)
	cfg.IdempotencyTTL, err = getEnvDuration("IP_IDEMPOTENCY_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("IP_IDEMPOTENCY_TTL: %w", err)
	}
	if cfg.IdempotencyTTL <= 0 {
		return nil, fmt.Errorf("IP_IDEMPOTENCY_TTL: значение должно быть положительным")
	}

	// IP_IDEMPOTENCY_SIZE — размер кэша ключей (по умолчанию 1024)
	cfg.IdempotencySize, err = getEnvInt("IP_IDEMPOTENCY_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("IP_IDEMPOTENCY_SIZE: %w", err)
	}
	if cfg.IdempotencySize <= 0 {
		return nil, fmt.Errorf("IP_IDEMPOTENCY_SIZE: значение должно быть положительным")
	}

	// IP_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("IP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("IP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// LoadDotenv подгружает переменные из существующих файлов paths.
// Отсутствующие файлы пропускаются, заданные переменные не перезаписываются.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("ошибка чтения %s: %w", p, err)
		}
	}
	return nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 10m, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
