package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/mood-story/backend/internal/config"
	"github.com/zhouzirui/mood-story/backend/internal/handler"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
	"github.com/zhouzirui/mood-story/backend/internal/service/pipeline"
	"github.com/zhouzirui/mood-story/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		logrus.WithError(err).Fatal("failed to configure logging")
	}

	log := logging.For("main")

	orchestrator, classifier, err := pipeline.FromConfig(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build story pipeline")
	}

	log.WithFields(logrus.Fields{
		"classifier":     classifier.Provider(),
		"story_provider": cfg.Gateway.StoryProvider,
		"image_probe":    cfg.Gateway.ImageProbe,
		"parallel":       cfg.Gateway.Parallel,
		"timeout":        cfg.Gateway.Timeout.String(),
	}).Info("story pipeline ready")

	sessions := session.NewService()
	router := handler.NewRouter(sessions, orchestrator)

	startServer(ctx, cfg.Server, router, log)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log *logrus.Entry) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.WithField("addr", addr).Info("mood story backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.WithError(err).Fatal("server error")
	}
	log.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
