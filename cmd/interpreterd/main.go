package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/catalog"
	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/config"
	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/drafts"
	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/httpapi"
	"github.com/samiserrag/denver-songwriters-collective-sub005/internal/interpreter"
	applog "github.com/samiserrag/denver-songwriters-collective-sub005/internal/log"
)

func main() {
	configPath := flag.String("config", "", "optional yaml config path")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	applog.Configure(applog.Config{Level: cfg.LogLevel, Service: "interpreterd"})
	logger := applog.Base()

	if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create data directory")
	}
	db, err := sqlx.Open("sqlite", cfg.DB.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	catalogStore, err := catalog.OpenOn(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("open venue catalog")
	}
	draftStore, err := drafts.OpenOn(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("open draft store")
	}

	caller, err := interpreter.NewAnthropicCallerFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("configure llm caller")
	}

	handler := httpapi.NewServer(httpapi.Options{
		LLM:       interpreter.NewClient(caller),
		Catalog:   catalogStore,
		Drafts:    draftStore,
		Secret:    cfg.HTTPServer.Secret,
		AITimeout: cfg.AI.Timeout,
		Logger:    applog.WithComponent("httpapi"),
	})

	addr := cfg.HTTPServer.Address + ":" + cfg.HTTPServer.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.AI.Timeout + cfg.HTTPServer.Timeout,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting interpreterd")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("stopped")
}
