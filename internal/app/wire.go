// Package app builds the pipeline from configuration. Every command wires
// its components here, once, at startup.
package app

import (
	"context"
	"fmt"

	"medscribe-go/internal/audio"
	"medscribe-go/internal/config"
	"medscribe-go/internal/diagnosis"
	"medscribe-go/internal/extractor"
	"medscribe-go/internal/llm"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/pipeline"
	"medscribe-go/internal/tempstore"
	"medscribe-go/internal/transcription"
)

// Load reads and validates configuration and applies the logging settings.
func Load(configFile string) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// Build constructs the pipeline. The returned close func releases the
// speech client.
func Build(ctx context.Context, cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	log := logger.New().WithField("component", "app")

	gen, err := llm.NewOpenAIClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, nil, err
	}

	var rec transcription.Recognizer
	closeFn := func() {}
	if cfg.Speech.MockOnly {
		log.Warn("speech.mock_only is set, every transcription will be a placeholder")
	} else {
		g, err := transcription.NewGoogleRecognizer(ctx, cfg.Speech.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("start speech backend (set speech.mock_only to run without one): %w", err)
		}
		rec = g
		closeFn = func() {
			if err := g.Close(); err != nil {
				log.WithError(err).Warn("closing speech client")
			}
		}
	}

	p := pipeline.New(pipeline.Deps{
		Fetcher: audio.NewFetcher(
			audio.WithMaxBytes(cfg.Audio.MaxBytes),
			audio.WithTimeout(cfg.Audio.FetchTimeout),
		),
		Store: tempstore.New(cfg.Audio.TempDir),
		Engine: transcription.NewEngine(rec,
			transcription.WithLanguage(cfg.Speech.Language),
			transcription.WithModel(cfg.Speech.Model),
		),
		Extractor:    extractor.New(gen),
		Diagnoser:    diagnosis.New(gen),
		MaxTextChars: cfg.Pipeline.MaxTextChars,
	})
	log.WithField("llm_model", cfg.LLM.Model).WithField("language", cfg.Speech.Language).Info("pipeline ready")
	return p, closeFn, nil
}
