package tempstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	list, err := os.ReadDir(dir)
	require.NoError(t, err)
	return list
}

func TestWithScopedFileRemovesOnSuccess(t *testing.T) {
	s := New(t.TempDir())

	var seen string
	got, err := WithScopedFile(s, []byte("audio"), "consult.mp3", func(path string) (string, error) {
		seen = path
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(b), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "audio", got)
	assert.True(t, strings.HasSuffix(seen, "_consult.mp3"))
	assert.Equal(t, s.Dir(), filepath.Dir(seen))
	assert.Empty(t, entries(t, s.Dir()))
}

func TestWithScopedFileRemovesOnBodyError(t *testing.T) {
	s := New(t.TempDir())
	boom := errors.New("boom")

	_, err := WithScopedFile(s, []byte("audio"), "a.wav", func(string) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, entries(t, s.Dir()))
}

func TestWithScopedFileRemovesOnPanic(t *testing.T) {
	s := New(t.TempDir())

	assert.Panics(t, func() {
		_, _ = WithScopedFile(s, []byte("audio"), "a.wav", func(string) (int, error) {
			panic("recognizer crashed")
		})
	})
	assert.Empty(t, entries(t, s.Dir()))
}

func TestWithScopedFileBodyDeletingFileIsFine(t *testing.T) {
	s := New(t.TempDir())

	got, err := WithScopedFile(s, []byte("audio"), "a.wav", func(path string) (bool, error) {
		return true, os.Remove(path)
	})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestWithScopedFileWriteFailure(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing-dir"))

	called := false
	_, err := WithScopedFile(s, []byte("audio"), "a.wav", func(string) (int, error) {
		called = true
		return 0, nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestWithScopedFileUniqueUnderConcurrency(t *testing.T) {
	s := New(t.TempDir())

	var mu sync.Mutex
	paths := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := WithScopedFile(s, []byte("x"), "same.mp3", func(path string) (struct{}, error) {
				mu.Lock()
				paths[path] = true
				mu.Unlock()
				return struct{}{}, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Len(t, paths, 32)
	assert.Empty(t, entries(t, s.Dir()))
}

func TestFileNameSanitisesHint(t *testing.T) {
	name := fileName("../../etc/pass wd?.mp3")
	assert.NotContains(t, name, "/")
	assert.True(t, strings.HasSuffix(name, "pass_wd_.mp3"), name)
	assert.True(t, strings.HasSuffix(fileName(""), "_audio"))
}
