// metrics.go — Prometheus HTTP метрики Inner-Peace.
// Регистрирует метрики: ip_http_requests_total, ip_http_request_duration_seconds.
// Бизнес-метрики (ip_records_saved_total и др.) регистрируются
// в пакете service и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ip_http_requests_total",
			Help: "Общее количество HTTP-запросов к Inner-Peace",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ip_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Inner-Peace в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// deleteRecordPrefix — префикс маршрута удаления записи.
const deleteRecordPrefix = "/api/delete_record/"

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// ID записи в пути заменяется на {id} (кардинальность)
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// normalizePath приводит путь к шаблону маршрута.
// Неизвестные пути сводятся к "other", чтобы произвольные URL не
// порождали новые ряды метрик.
// /api/delete_record/a1b2c3d4-e5f6-7890-abcd-ef1234567890 → /api/delete_record/{id}
func normalizePath(path string) string {
	switch path {
	case "/health/live",
		"/health/ready",
		"/metrics",
		"/api/save_sos",
		"/api/save_abcde",
		"/api/get_question",
		"/api/history":
		return path
	}
	if rest, ok := strings.CutPrefix(path, deleteRecordPrefix); ok && rest != "" && !strings.Contains(rest, "/") {
		return deleteRecordPrefix + "{id}"
	}
	return "other"
}
