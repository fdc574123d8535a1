package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray .env or
// medscribe.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(25<<20), cfg.Audio.MaxBytes)
	assert.Equal(t, 60*time.Second, cfg.Audio.FetchTimeout)
	assert.Equal(t, "pt-BR", cfg.Speech.Language)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 5000, cfg.Pipeline.MaxTextChars)
	assert.Equal(t, 2, cfg.Batch.Retries)
	assert.False(t, cfg.Speech.MockOnly)

	assert.ErrorContains(t, cfg.Validate(), "llm.api_key")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("SECRET_LLM_KEY", "from-ref")
	t.Setenv("MEDSCRIBE_SPEECH_MOCK_ONLY", "true")
	t.Setenv("MEDSCRIBE_SERVER_PORT", "9090")

	yaml := `
server:
  port: 7000
speech:
  language: en-US
llm:
  api_key: ${SECRET_LLM_KEY}
  temperature: 0.2
pipeline:
  max_text_chars: 1200
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port, "env overrides file")
	assert.Equal(t, "en-US", cfg.Speech.Language)
	assert.Equal(t, "from-ref", cfg.LLM.APIKey)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 1200, cfg.Pipeline.MaxTextChars)
	assert.True(t, cfg.Speech.MockOnly)
	assert.NoError(t, cfg.Validate())
}

func TestLoadGeminiKeyFallback(t *testing.T) {
	inTempDir(t)
	t.Setenv("GEMINI_API_KEY", "gk")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gk", cfg.LLM.APIKey)
}

func TestLoadBadFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "reading config")
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"llm.api_key", "llm.model", "speech.language", "max_text_chars", "max_bytes"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("SOME_VAR", "value")
	assert.Equal(t, "value", resolveEnvRef("${SOME_VAR}"))
	assert.Equal(t, "${UNSET_VAR_XYZ}", resolveEnvRef("${UNSET_VAR_XYZ}"))
	assert.Equal(t, "plain", resolveEnvRef("plain"))
}
