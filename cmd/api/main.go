package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medscribe-go/internal/app"
	"medscribe-go/internal/httpapi"
	"medscribe-go/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "path to medscribe.yaml")
	flag.Parse()

	log := logger.New()
	cfg, err := app.Load(*configFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log = logger.New()
	log.WithField("service", "medscribe-go").Info("starting service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeFn, err := app.Build(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build pipeline")
	}
	defer closeFn()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpapi.New(p, cfg.Server.MaxBodyBytes).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}
