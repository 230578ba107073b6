// Пакет server — HTTP-сервер Inner-Peace с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/innerpeace/internal/api/middleware"
	"github.com/bigkaa/innerpeace/internal/config"
)

// Mounter регистрирует маршруты на роутере.
type Mounter interface {
	Mount(r chi.Router)
}

// Server — HTTP-сервер Inner-Peace.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными routes и middleware.
// doc — OpenAPI контракт для проверки запросов (nil отключает проверку).
func New(cfg *config.Config, logger *slog.Logger, api Mounter, doc *openapi3.T) (*Server, error) {
	router := chi.NewRouter()

	// Middleware: логирование, метрики, проверка контракта
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())
	if doc != nil {
		validator, err := middleware.RequestValidator(doc, logger)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации проверки контракта: %w", err)
		}
		router.Use(validator)
	}

	api.Mount(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
		cfg:        cfg,
	}, nil
}

// Handler возвращает корневой обработчик (для httptest).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run запускает сервер и ожидает отмены ctx или сигнала завершения
// (SIGINT, SIGTERM). Затем выполняется graceful shutdown с таймаутом
// cfg.ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Получен сигнал завершения")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
