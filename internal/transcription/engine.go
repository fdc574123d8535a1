package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"medscribe-go/internal/audio"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/types"
)

const (
	DefaultLanguage = "pt-BR"
	DefaultModel    = "default"
)

// DefaultHypotheses is tried in order; the first non-empty transcript wins.
// Codec and sample rate of arbitrary URLs are not known in advance.
var DefaultHypotheses = []types.EncodingHypothesis{
	{Encoding: types.EncodingMP3, SampleRateHz: 16000, Label: "MP3 16kHz"},
	{Encoding: types.EncodingMP3, SampleRateHz: 44100, Label: "MP3 44.1kHz"},
	{Encoding: types.EncodingLinear16, SampleRateHz: 16000, Label: "LINEAR16 16kHz"},
	{Encoding: types.EncodingFLAC, SampleRateHz: 16000, Label: "FLAC 16kHz"},
}

// RecognitionConfig is the per-call request sent to the speech backend.
type RecognitionConfig struct {
	Encoding                   types.RecognitionEncoding
	SampleRateHertz            int
	LanguageCode               string
	Model                      string
	UseEnhanced                bool
	EnableAutomaticPunctuation bool
	EnableWordTimeOffsets      bool
}

// Segment is one result segment with its alternatives, best first.
type Segment struct {
	Alternatives []string
}

type Recognizer interface {
	Recognize(ctx context.Context, audio []byte, cfg RecognitionConfig) ([]Segment, error)
}

type Engine struct {
	rec        Recognizer
	language   string
	model      string
	hypotheses []types.EncodingHypothesis
}

type EngineOption func(*Engine)

func WithLanguage(tag string) EngineOption {
	return func(e *Engine) {
		if tag != "" {
			e.language = tag
		}
	}
}

func WithModel(m string) EngineOption {
	return func(e *Engine) {
		if m != "" {
			e.model = m
		}
	}
}

func WithHypotheses(h []types.EncodingHypothesis) EngineOption {
	return func(e *Engine) { e.hypotheses = h }
}

// NewEngine builds an engine. A nil recognizer makes every call return the
// mock transcript.
func NewEngine(rec Recognizer, opts ...EngineOption) *Engine {
	e := &Engine{
		rec:        rec,
		language:   DefaultLanguage,
		model:      DefaultModel,
		hypotheses: DefaultHypotheses,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Transcribe never fails: when no hypothesis yields text, or the file or the
// backend is unusable, it returns the mock transcript for path.
func (e *Engine) Transcribe(ctx context.Context, path string) types.TranscriptionResult {
	log := logger.New().WithField("component", "transcription").WithField("path", path)

	text, hyp, data, err := e.recognize(ctx, path, log)
	if err != nil {
		log.WithError(err).Warn("recognition failed, using mock transcription")
		return MockForPath(path, e.language)
	}

	res := types.TranscriptionResult{
		Transcription:   text,
		ConfidenceScore: MockConfidence,
		LanguageTag:     e.language,
	}
	if secs, ok := audio.EstimateDuration(types.AudioBytes{Data: data, Filename: filepath.Base(path)}); ok {
		res.DurationSeconds = &secs
	}
	log.WithField("hypothesis", hyp.Label).WithField("chars", len(text)).Info("transcription complete")
	return res
}

func (e *Engine) recognize(ctx context.Context, path string, log *logrus.Entry) (string, types.EncodingHypothesis, []byte, error) {
	var none types.EncodingHypothesis
	if e.rec == nil {
		return "", none, nil, fmt.Errorf("no speech backend configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", none, nil, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return "", none, nil, fmt.Errorf("audio file is empty")
	}
	log.WithField("bytes", len(data)).Debug("audio loaded")

	var lastErr error
	for _, h := range e.hypotheses {
		if err := ctx.Err(); err != nil {
			return "", h, nil, err
		}
		cfg := RecognitionConfig{
			Encoding:                   h.Encoding,
			SampleRateHertz:            h.SampleRateHz,
			LanguageCode:               e.language,
			Model:                      e.model,
			UseEnhanced:                true,
			EnableAutomaticPunctuation: true,
			EnableWordTimeOffsets:      false,
		}
		hlog := log.WithField("hypothesis", h.Label)
		segments, err := e.rec.Recognize(ctx, data, cfg)
		if err != nil {
			hlog.WithError(err).Debug("hypothesis failed")
			lastErr = err
			continue
		}
		if text := JoinSegments(segments); text != "" {
			return text, h, data, nil
		}
		hlog.Debug("hypothesis returned no text")
	}
	if lastErr != nil {
		return "", none, nil, fmt.Errorf("all %d encodings failed, last error: %w", len(e.hypotheses), lastErr)
	}
	return "", none, nil, fmt.Errorf("all %d encodings returned no text", len(e.hypotheses))
}

// JoinSegments joins the best alternative of every segment, in order, with
// single spaces. Blank segments are dropped.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if len(s.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(s.Alternatives[0]); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
