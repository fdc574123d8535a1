// Package config loads the service configuration from .env, an optional
// medscribe.yaml and MEDSCRIBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Inbox    InboxConfig    `mapstructure:"inbox"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text; empty picks by ENVIRONMENT
}

type AudioConfig struct {
	MaxBytes     int64         `mapstructure:"max_bytes"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	TempDir      string        `mapstructure:"temp_dir"`
}

// SpeechConfig configures Google Speech-to-Text. Credentials come from
// CredentialsFile or, when empty, Application Default Credentials.
type SpeechConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	Language        string `mapstructure:"language"`
	Model           string `mapstructure:"model"`
	// MockOnly skips the speech backend entirely and always returns mock
	// transcripts. It must be set explicitly.
	MockOnly bool `mapstructure:"mock_only"`
}

// LLMConfig points at any OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

type PipelineConfig struct {
	MaxTextChars int `mapstructure:"max_text_chars"`
}

type BatchConfig struct {
	Retries int `mapstructure:"retries"`
}

type InboxConfig struct {
	Dir       string `mapstructure:"dir"`
	OutputDir string `mapstructure:"output_dir"`
	Diagnose  bool   `mapstructure:"diagnose"`
}

// Load reads configuration. If configFile is empty the search order is
// ./medscribe.yaml, ./configs/medscribe.yaml, /etc/medscribe/medscribe.yaml;
// a missing file is not an error.
func Load(configFile string) (*Config, error) {
	_ = godotenv.Load() // loads .env

	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.max_body_bytes", 40<<20)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")
	v.SetDefault("audio.max_bytes", 25<<20)
	v.SetDefault("audio.fetch_timeout", 60*time.Second)
	v.SetDefault("audio.temp_dir", "")
	v.SetDefault("speech.credentials_file", "")
	v.SetDefault("speech.language", "pt-BR")
	v.SetDefault("speech.model", "default")
	v.SetDefault("speech.mock_only", false)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("pipeline.max_text_chars", 5000)
	v.SetDefault("batch.retries", 2)
	v.SetDefault("inbox.dir", "./inbox")
	v.SetDefault("inbox.output_dir", "./inbox/results")
	v.SetDefault("inbox.diagnose", false)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("medscribe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/medscribe")
	}

	// MEDSCRIBE_LLM_API_KEY, MEDSCRIBE_SPEECH_MOCK_ONLY, ...
	v.SetEnvPrefix("MEDSCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.LLM.APIKey = resolveEnvRef(cfg.LLM.APIKey)
	if cfg.LLM.APIKey == "" {
		// the key most deployments already export
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.Speech.CredentialsFile = resolveEnvRef(cfg.Speech.CredentialsFile)

	return &cfg, nil
}

// Validate fails fast on settings the backends cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key (or GEMINI_API_KEY) is required"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.Speech.Language == "" {
		errs = append(errs, errors.New("speech.language is required"))
	}
	if c.Pipeline.MaxTextChars <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_text_chars must be positive, got %d", c.Pipeline.MaxTextChars))
	}
	if c.Audio.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("audio.max_bytes must be positive, got %d", c.Audio.MaxBytes))
	}
	return errors.Join(errs...)
}

// resolveEnvRef replaces "${VAR_NAME}" with the value of VAR_NAME.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		if envVal := os.Getenv(val[2 : len(val)-1]); envVal != "" {
			return envVal
		}
	}
	return val
}
