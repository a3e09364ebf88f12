// Command server runs the quote3d HTTP API: upload with per-session
// duplicate detection, retention-swept file storage, and quoting.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rise-and-shine/quote3d/internal/api"
	"github.com/rise-and-shine/quote3d/internal/config"
	"github.com/rise-and-shine/quote3d/internal/geometry"
	"github.com/rise-and-shine/quote3d/internal/session"
	"github.com/rise-and-shine/quote3d/internal/storage"
	"github.com/rise-and-shine/quote3d/pkg/cfgloader"
	"github.com/rise-and-shine/quote3d/pkg/http/server"
	"github.com/rise-and-shine/quote3d/pkg/http/server/middleware"
	"github.com/rise-and-shine/quote3d/pkg/logger"
)

func main() {
	cfg := cfgloader.MustLoad[config.Config]()

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log = log.Named(cfg.Service.Name)

	backend, err := storage.NewBackend(cfg.Storage)
	if err != nil {
		log.Fatalx(err)
	}

	manager := storage.NewManager(backend, cfg.Storage.Retention)
	registry := session.NewRegistry()

	var analyzer geometry.Analyzer
	var converter geometry.Converter
	if cfg.Geometry.Enabled {
		remote := geometry.NewRemoteClient(cfg.Geometry)
		analyzer = remote
		converter = remote
	}

	srv := server.NewHTTPServer(cfg.Server, []server.Middleware{
		middleware.NewRecoveryMW(log),
		middleware.NewTimeoutMW(cfg.Server.HandleTimeout),
		middleware.NewMetaInjectMW(cfg.Service.Name, cfg.Service.Version),
		middleware.NewLoggerMW(log),
	})
	srv.RegisterRouter(api.New(log, registry, manager, analyzer, converter).Register)

	sweeper := storage.NewSweeper(manager, cfg.Storage.SweepInterval, log)
	sweeper.Start()

	go func() {
		log.With("addr", cfg.Server.Address()).
			With("storage_backend", backend.Kind()).
			With("retention", cfg.Storage.Retention.String()).
			Info("starting http server")

		if err := srv.Start(); err != nil {
			log.Fatalx(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	sweeper.Stop()
	if err := srv.Stop(); err != nil {
		log.Errorx(err)
	}
}
