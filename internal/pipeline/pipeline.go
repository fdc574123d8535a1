// Package pipeline sequences the consultation stages: acquire audio,
// transcribe, extract the medical record and optionally diagnose. Each stage
// runs once; retrying a whole run is left to the caller (see Retry).
package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"medscribe-go/internal/apperr"
	"medscribe-go/internal/audio"
	"medscribe-go/internal/diagnosis"
	"medscribe-go/internal/extractor"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/tempstore"
	"medscribe-go/internal/transcription"
	"medscribe-go/internal/types"
)

// Deps are the stage components. They are built once at startup and shared
// by every request.
type Deps struct {
	Fetcher   *audio.Fetcher
	Store     *tempstore.Store
	Engine    *transcription.Engine
	Extractor *extractor.Extractor
	Diagnoser *diagnosis.Generator
	// MaxTextChars bounds Extract input; zero means extractor.RecommendedMaxChars.
	MaxTextChars int
}

type Pipeline struct {
	fetcher      *audio.Fetcher
	store        *tempstore.Store
	engine       *transcription.Engine
	extractor    *extractor.Extractor
	diagnoser    *diagnosis.Generator
	maxTextChars int
}

func New(d Deps) *Pipeline {
	p := &Pipeline{
		fetcher:      d.Fetcher,
		store:        d.Store,
		engine:       d.Engine,
		extractor:    d.Extractor,
		diagnoser:    d.Diagnoser,
		maxTextChars: d.MaxTextChars,
	}
	if p.fetcher == nil {
		p.fetcher = audio.NewFetcher()
	}
	if p.store == nil {
		p.store = tempstore.New("")
	}
	if p.engine == nil {
		p.engine = transcription.NewEngine(nil)
	}
	if p.maxTextChars <= 0 {
		p.maxTextChars = extractor.RecommendedMaxChars
	}
	return p
}

// AnalyzeRequest carries either an audio reference or ready transcript text.
type AnalyzeRequest struct {
	Reference *types.AudioReference
	Text      string
	Diagnose  bool
}

// Transcribe routes a reference to its acquisition path and transcribes the
// audio. Input errors are returned; download and storage failures degrade to
// a mock transcript keyed on the reference.
func (p *Pipeline) Transcribe(ctx context.Context, ref types.AudioReference) (types.TranscriptionResult, error) {
	const op = "pipeline.transcribe"
	log := logger.New().WithField("component", "pipeline").WithField("source", ref.Source())

	kind, err := referenceKind(ref)
	if err != nil {
		return types.TranscriptionResult{}, err
	}
	ref.Kind = kind

	var clip types.AudioBytes
	switch kind {
	case types.ReferenceURL:
		clip, err = p.fetcher.Fetch(ctx, ref.URL)
		if err != nil {
			if apperr.CategoryOf(err) == apperr.Input {
				return types.TranscriptionResult{}, err
			}
			log.WithError(err).Warn("download failed, using mock transcription")
			return transcription.MockForSource(ref.URL), nil
		}
	case types.ReferenceInline:
		clip, err = audio.DecodeInline(ref.Data, ref.Filename, ref.ContentType)
		if err != nil {
			return types.TranscriptionResult{}, err
		}
	default:
		return types.TranscriptionResult{}, apperr.Newf(apperr.InvalidReference, op, "unknown reference kind %q", kind)
	}

	res, err := tempstore.WithScopedFile(p.store, clip.Data, clip.Filename, func(path string) (types.TranscriptionResult, error) {
		return p.engine.Transcribe(ctx, path), nil
	})
	if err != nil {
		log.WithError(err).Warn("temp store failed, using mock transcription")
		return transcription.MockForSource(ref.Source()), nil
	}
	return res, nil
}

// referenceKind enforces that exactly one variant is populated. An empty
// Kind is inferred from the populated field.
func referenceKind(ref types.AudioReference) (types.ReferenceKind, error) {
	const op = "pipeline.reference"
	hasURL := strings.TrimSpace(ref.URL) != ""
	hasData := strings.TrimSpace(ref.Data) != ""

	switch {
	case hasURL && hasData:
		return "", apperr.New(apperr.InvalidReference, op, "reference has both url and inline data")
	case !hasURL && !hasData:
		return "", apperr.New(apperr.InvalidReference, op, "reference has neither url nor inline data")
	}

	switch ref.Kind {
	case "":
		if hasURL {
			return types.ReferenceURL, nil
		}
		return types.ReferenceInline, nil
	case types.ReferenceURL:
		if !hasURL {
			return "", apperr.New(apperr.InvalidReference, op, "url reference without url")
		}
	case types.ReferenceInline:
		if !hasData {
			return "", apperr.New(apperr.InvalidReference, op, "inline reference without data")
		}
	default:
		return "", apperr.Newf(apperr.InvalidReference, op, "unknown reference kind %q", ref.Kind)
	}
	return ref.Kind, nil
}

// Extract validates text at the boundary before calling the extractor.
func (p *Pipeline) Extract(ctx context.Context, text string) (types.MedicalRecord, error) {
	const op = "pipeline.extract"
	if strings.TrimSpace(text) == "" {
		return types.MedicalRecord{}, apperr.New(apperr.MissingField, op, "text is required")
	}
	if n := utf8.RuneCountInString(text); n > p.maxTextChars {
		return types.MedicalRecord{}, apperr.Newf(apperr.TextTooLong, op, "text has %d characters, limit is %d", n, p.maxTextChars)
	}
	if p.extractor == nil {
		return types.MedicalRecord{}, apperr.New(apperr.UpstreamUnavailable, op, "no language model configured")
	}
	return p.extractor.Extract(ctx, text)
}

func (p *Pipeline) Diagnose(ctx context.Context, rec types.MedicalRecord) (types.Diagnosis, error) {
	if p.diagnoser == nil {
		return types.Diagnosis{}, apperr.New(apperr.UpstreamUnavailable, "pipeline.diagnose", "no language model configured")
	}
	return p.diagnoser.Diagnose(ctx, rec)
}

// Analyze runs transcribe → extract → optional diagnose. The first failing
// stage ends the run.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (types.AnalysisResult, error) {
	const op = "pipeline.analyze"
	log := logger.New().WithField("component", "pipeline")
	start := time.Now()

	hasText := strings.TrimSpace(req.Text) != ""
	if req.Reference != nil && hasText {
		return types.AnalysisResult{}, apperr.New(apperr.InvalidReference, op, "give either audio or text, not both")
	}
	if req.Reference == nil && !hasText {
		return types.AnalysisResult{}, apperr.New(apperr.MissingField, op, "audio reference or text is required")
	}

	var res types.AnalysisResult
	text := req.Text
	if req.Reference != nil {
		res.Source = req.Reference.Source()
		tr, err := p.Transcribe(ctx, *req.Reference)
		if err != nil {
			return types.AnalysisResult{}, err
		}
		res.Transcription = &tr
		text = tr.Transcription
	} else {
		res.Source = "text"
	}
	log = log.WithField("source", res.Source)

	rec, err := p.Extract(ctx, text)
	if err != nil {
		log.WithError(err).Warn("extraction failed")
		return types.AnalysisResult{}, err
	}
	res.Record = rec

	if req.Diagnose {
		d, err := p.Diagnose(ctx, rec)
		if err != nil {
			log.WithError(err).Warn("diagnosis failed")
			return types.AnalysisResult{}, err
		}
		res.Diagnosis = &d
	}

	res.DurationMs = time.Since(start).Milliseconds()
	log.WithField("duration_ms", res.DurationMs).WithField("diagnosed", res.Diagnosis != nil).Info("analysis complete")
	return res, nil
}
