package cli

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bigkaa/innerpeace/internal/api/handlers"
	"github.com/bigkaa/innerpeace/internal/api/openapi"
	"github.com/bigkaa/innerpeace/internal/config"
	"github.com/bigkaa/innerpeace/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd)
		},
	}
}

func (a *app) serve(cmd *cobra.Command) error {
	a.logger.Info("Inner-Peace запускается",
		slog.String("version", config.Version),
		slog.Int("port", a.cfg.Port),
		slog.String("history_file", a.cfg.HistoryFile),
		slog.Bool("store_file_lock", a.cfg.StoreFileLock),
	)

	// 1. OpenAPI контракт
	doc, err := openapi.Load()
	if err != nil {
		return err
	}

	// 2. Handlers
	api := handlers.NewAPIHandler(
		handlers.NewJournalHandler(a.journal),
		handlers.NewHealthHandler(a.cfg.HistoryFile),
		promhttp.Handler(),
	)

	// 3. HTTP-сервер
	srv, err := server.New(a.cfg, a.logger, api, doc)
	if err != nil {
		return err
	}
	return srv.Run(cmd.Context())
}
