// Package llm is the generative-text backend: a prompt in, a completion out.
// No structured output mode is assumed; callers post-process the text.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/logger"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint,
// Gemini's included.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, apperr.New(apperr.UpstreamUnavailable, "llm.new", "api key not configured")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate sends prompt as a single user message, once. An answer without
// choices comes back as "".
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	const op = "llm.generate"
	log := logger.New().WithField("component", "llm").WithField("model", c.model)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		log.WithError(err).Warn("llm request failed")
		return "", classify(op, err)
	}
	if len(resp.Choices) == 0 {
		log.Warn("llm returned no choices")
		return "", nil
	}
	log.WithField("prompt_len", len(prompt)).WithField("completion_len", len(resp.Choices[0].Message.Content)).Debug("llm completion received")
	return resp.Choices[0].Message.Content, nil
}

// classify maps rejected credentials to UpstreamUnavailable and everything
// else to UpstreamError. Gemini rejects a bad key with 400 INVALID_ARGUMENT
// and reason API_KEY_INVALID rather than 401.
func classify(op string, err error) error {
	status := 0
	msg := ""
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		msg = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Wrap(apperr.UpstreamUnavailable, op, err)
	case status == http.StatusBadRequest && invalidKey(msg + " " + err.Error()):
		return apperr.Wrap(apperr.UpstreamUnavailable, op, err)
	}
	return apperr.Wrap(apperr.UpstreamError, op, err)
}

func invalidKey(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "api_key_invalid") || strings.Contains(s, "api key not valid")
}
