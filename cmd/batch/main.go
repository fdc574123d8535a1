// Command batch analyses every consultation in an xlsx workbook and writes
// a results workbook.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"medscribe-go/internal/app"
	"medscribe-go/internal/dataset"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/pipeline"
	"medscribe-go/internal/types"
)

func main() {
	configFile := flag.String("config", "", "path to medscribe.yaml")
	in := flag.String("in", "consultations.xlsx", "input workbook")
	out := flag.String("out", "results.xlsx", "output workbook")
	diagnose := flag.Bool("diagnose", false, "also generate a diagnosis per consultation")
	retries := flag.Int("retries", -1, "retries per consultation (default batch.retries)")
	flag.Parse()

	cfg, err := app.Load(*configFile)
	if err != nil {
		logger.New().WithError(err).Fatal("failed to load configuration")
	}
	log := logger.New().WithField("component", "batch")
	if *retries < 0 {
		*retries = cfg.Batch.Retries
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeFn, err := app.Build(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to build pipeline")
	}
	defer closeFn()

	rows, err := dataset.Load(*in)
	if err != nil {
		log.WithError(err).Fatal("failed to load consultations")
	}

	outcomes := make([]types.Outcome, 0, len(rows))
	failed := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			log.Warn("interrupted, writing partial report")
			break
		}
		req := pipeline.AnalyzeRequest{Text: row.Text, Diagnose: *diagnose}
		if row.AudioURL != "" {
			ref := types.URLReference(row.AudioURL)
			req = pipeline.AnalyzeRequest{Reference: &ref, Diagnose: *diagnose}
		}
		res, err := pipeline.Retry(ctx, *retries+1, func(ctx context.Context) (types.AnalysisResult, error) {
			return p.Analyze(ctx, req)
		})
		if err != nil {
			failed++
			log.WithError(err).WithField("id", row.ID).Warn("consultation failed")
		}
		outcomes = append(outcomes, types.Outcome{Row: row, Result: res, Err: err})
	}

	if err := dataset.WriteReport(*out, outcomes); err != nil {
		log.WithError(err).Fatal("failed to write report")
	}
	log.WithField("total", len(outcomes)).WithField("failed", failed).WithField("out", *out).Info("batch finished")
}
