// Package inbox analyses audio files dropped into a directory and writes a
// <name>.result.json next to the configured output directory.
package inbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/audio"
	"medscribe-go/internal/logger"
	"medscribe-go/internal/pipeline"
	"medscribe-go/internal/types"
)

const (
	queueSize       = 64
	defaultMaxBytes = 25 << 20
)

// Analyzer is the part of the pipeline the inbox drives.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.AnalyzeRequest) (types.AnalysisResult, error)
}

// Result is the document written for every processed file.
type Result struct {
	File       string                `json:"file"`
	Analysis   *types.AnalysisResult `json:"analysis,omitempty"`
	Error      string                `json:"error,omitempty"`
	Kind       string                `json:"kind,omitempty"`
	FinishedAt time.Time             `json:"finishedAt"`
}

type Watcher struct {
	dir      string
	outDir   string
	diagnose bool
	analyzer Analyzer
	queue    chan string
	maxBytes int64

	// settle is how long a file size must stay unchanged before reading.
	settle time.Duration
}

type Option func(*Watcher)

// WithMaxBytes caps the size of files the inbox will read.
func WithMaxBytes(n int64) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.maxBytes = n
		}
	}
}

func New(dir, outDir string, a Analyzer, diagnose bool, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		outDir:   outDir,
		diagnose: diagnose,
		analyzer: a,
		queue:    make(chan string, queueSize),
		maxBytes: defaultMaxBytes,
		settle:   300 * time.Millisecond,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// ShouldProcess reports whether name is an audio file the inbox handles.
// Hidden files, partial downloads and our own results are ignored.
func ShouldProcess(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part") {
		return false
	}
	return audio.HasSupportedExtension(base)
}

// ResultPath is where the result for the audio file at path is written.
func (w *Watcher) ResultPath(path string) string {
	return filepath.Join(w.outDir, filepath.Base(path)+".result.json")
}

// Run watches the inbox until ctx is done. Files are processed one at a
// time in arrival order.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.New().WithField("component", "inbox").WithField("dir", w.dir)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	log.Info("watching inbox")

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.work(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if err := w.handleEvent(ev); err != nil {
				log.WithError(err).WithField("event", ev.String()).Error("failed to handle event")
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("file watcher error")
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) error {
	if !ev.Has(fsnotify.Create) || !ShouldProcess(ev.Name) {
		return nil
	}
	select {
	case w.queue <- ev.Name:
		logger.New().WithField("component", "inbox").WithField("file", filepath.Base(ev.Name)).Info("queued audio file")
		return nil
	default:
		return fmt.Errorf("job queue is full")
	}
}

func (w *Watcher) work(ctx context.Context) {
	log := logger.New().WithField("component", "inbox")
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			if err := waitStable(ctx, path, w.settle); err != nil {
				log.WithError(err).WithField("file", path).Warn("file vanished before processing")
				continue
			}
			if _, err := w.ProcessFile(ctx, path); err != nil {
				log.WithError(err).WithField("file", path).Error("failed to write result")
			}
		}
	}
}

// ProcessFile analyses one audio file as inline audio and writes its
// result document. Analysis failures are recorded in the document; the
// returned error covers reading and writing only.
func (w *Watcher) ProcessFile(ctx context.Context, path string) (Result, error) {
	log := logger.New().WithField("component", "inbox").WithField("file", filepath.Base(path))

	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	res := Result{File: filepath.Base(path)}
	if info.Size() > w.maxBytes {
		err := apperr.Newf(apperr.InvalidReference, "inbox.process", "file has %d bytes, limit is %d", info.Size(), w.maxBytes)
		res.Error = err.Error()
		res.Kind = apperr.KindOf(err).String()
		log.WithError(err).Warn("file too large, skipped")
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read %s: %w", path, err)
		}
		ref := types.InlineReference(base64.StdEncoding.EncodeToString(data), filepath.Base(path), "")
		analysis, err := w.analyzer.Analyze(ctx, pipeline.AnalyzeRequest{Reference: &ref, Diagnose: w.diagnose})
		if err != nil {
			res.Error = err.Error()
			res.Kind = apperr.KindOf(err).String()
			log.WithError(err).Warn("analysis failed")
		} else {
			res.Analysis = &analysis
		}
	}
	res.FinishedAt = time.Now().UTC()

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return res, fmt.Errorf("encode result: %w", err)
	}
	dst := w.ResultPath(path)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return res, fmt.Errorf("write result: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return res, fmt.Errorf("write result: %w", err)
	}
	log.WithField("result", dst).Info("result written")
	return res, nil
}

// waitStable returns once the size of path is unchanged across one settle
// interval.
func waitStable(ctx context.Context, path string, settle time.Duration) error {
	last := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == last {
			return nil
		}
		last = info.Size()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settle):
		}
	}
}
