// logging.go — middleware логирования входящих HTTP-запросов через slog.
// Перехватывает статус-код, размер ответа и длительность обработки.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Маршруты журнала, для которых лог дополняется атрибутами записи.
const (
	saveRoutePrefix   = "/api/save_"
	deleteRoutePrefix = "/api/delete_record/"
	idempotencyHeader = "Idempotency-Key"
)

// responseWriter — обёртка для перехвата статус-кода ответа.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	written     int64
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger возвращает middleware, логирующий каждый HTTP-запрос:
// метод, путь, статус, длительность, размер ответа, remote_addr.
// Уровень логирования зависит от статус-кода: INFO (1xx-3xx), WARN (4xx), ERROR (5xx).
// Сохранения дополняются признаком Idempotency-Key (значение ключа не пишется),
// удаления — ID записи.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)

			level := slog.LevelInfo
			if wrapped.statusCode >= 500 {
				level = slog.LevelError
			} else if wrapped.statusCode >= 400 {
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", duration),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			attrs = append(attrs, journalAttrs(r)...)

			logger.LogAttrs(r.Context(), level, "HTTP запрос", attrs...)
		})
	}
}

// journalAttrs — атрибуты операций журнала.
func journalAttrs(r *http.Request) []slog.Attr {
	switch {
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, saveRoutePrefix):
		return []slog.Attr{slog.Bool("idempotency_key", r.Header.Get(idempotencyHeader) != "")}
	case r.Method == http.MethodDelete:
		if id, ok := strings.CutPrefix(r.URL.Path, deleteRoutePrefix); ok && id != "" {
			return []slog.Attr{slog.String("record_id", id)}
		}
	}
	return nil
}
