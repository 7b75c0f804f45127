package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-ledger/internal/api"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func serve(env *environment) error {
	if env.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(env.app, env.cfg.DataDir, env.logger)
	srv := &http.Server{
		Addr:    ":" + env.cfg.Port,
		Handler: api.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("server listening",
			zap.String("port", env.cfg.Port),
			zap.String("backend", env.cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	env.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

