// Command inbox watches a directory and analyses every audio file dropped
// into it.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"medscribe-go/internal/app"
	"medscribe-go/internal/inbox"
	"medscribe-go/internal/logger"
)

func main() {
	configFile := flag.String("config", "", "path to medscribe.yaml")
	flag.Parse()

	cfg, err := app.Load(*configFile)
	if err != nil {
		logger.New().WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New().WithField("component", "inbox")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeFn, err := app.Build(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build pipeline")
	}
	defer closeFn()

	w := inbox.New(cfg.Inbox.Dir, cfg.Inbox.OutputDir, p, cfg.Inbox.Diagnose,
		inbox.WithMaxBytes(cfg.Audio.MaxBytes))
	if err := w.Run(ctx); err != nil {
		log.WithError(err).Fatal("inbox stopped")
	}
	log.Info("inbox stopped")
}
