// Package tempstore holds request audio in a local file for exactly as long
// as a recognizer needs it.
package tempstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"medscribe-go/internal/logger"
)

const removeAttempts = 3

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Store struct {
	dir        string
	removeWait time.Duration
}

// New returns a store rooted at dir, or the OS temp dir when dir is empty.
func New(dir string) *Store {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{dir: dir, removeWait: 50 * time.Millisecond}
}

func (s *Store) Dir() string { return s.dir }

// WithScopedFile writes data to a uniquely named file, runs body with its
// path and removes the file on every exit path, panics included. Removal
// failures are logged and never replace body's result.
func WithScopedFile[T any](s *Store, data []byte, hint string, body func(path string) (T, error)) (result T, err error) {
	log := logger.New().WithField("component", "tempstore")

	path := filepath.Join(s.dir, fileName(hint))
	if werr := os.WriteFile(path, data, 0o600); werr != nil {
		s.remove(path)
		return result, fmt.Errorf("write temp audio: %w", werr)
	}
	log.WithField("path", path).WithField("bytes", len(data)).Debug("temp audio written")

	defer s.remove(path)
	return body(path)
}

func fileName(hint string) string {
	base := unsafeChars.ReplaceAllString(filepath.Base(hint), "_")
	if base == "" || base == "." || base == "_" {
		base = "audio"
	}
	if len(base) > 64 {
		base = base[len(base)-64:]
	}
	return fmt.Sprintf("audio_%d_%s_%s", time.Now().UnixNano(), uuid.NewString()[:8], base)
}

// remove retries briefly since a recognizer may still hold the handle on
// some platforms.
func (s *Store) remove(path string) {
	log := logger.New().WithField("component", "tempstore").WithField("path", path)

	op := func() error {
		err := os.Remove(path)
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.removeWait), removeAttempts-1)
	if err := backoff.Retry(op, b); err != nil {
		log.WithError(err).Warn("failed to remove temp audio")
		return
	}
	log.Debug("temp audio removed")
}
