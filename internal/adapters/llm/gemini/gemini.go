// Package gemini generates mediation text with Google's Gemini models
package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"

	"peacekeeper/internal/core/respond"
	"peacekeeper/internal/platform/config"
	perr "peacekeeper/internal/platform/errors"
	"peacekeeper/internal/platform/logger"
)

// DefaultModel is used when LLM_MODEL is unset
const DefaultModel = "gemini-2.5-flash"

// Config holds the client settings
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// FromConfig reads LLM_* settings
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("LLM_")
	return Config{
		APIKey:      c.MayString("API_KEY", ""),
		Model:       c.MayString("MODEL", DefaultModel),
		MaxTokens:   c.MayInt("MAX_TOKENS", 150),
		Temperature: c.MayFloat64("TEMPERATURE", 0.8),
	}
}

// Enabled reports whether a key is configured
func (c Config) Enabled() bool { return c.APIKey != "" }

// models is the slice of *genai.Models the client needs
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements respond.Generator
type Client struct {
	cfg    Config
	models models
	log    *logger.Logger
}

var _ respond.Generator = (*Client)(nil)

// New dials the Gemini API
func New(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "gemini: missing LLM_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "gemini: create client")
	}
	return newWith(cfg, gc.Models), nil
}

func newWith(cfg Config, m models) *Client {
	return &Client{cfg: cfg, models: m, log: logger.Named("gemini")}
}

// Generate asks the model for a short in-character mediation line
func (c *Client) Generate(ctx context.Context, req respond.Request) (string, error) {
	gcfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.cfg.Temperature)),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
		// 2.5 models think by default and that spend comes out of MaxOutputTokens
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(respond.BuildPrompt(req)), gcfg)
	if err != nil {
		if ctx.Err() != nil {
			return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "gemini: request cancelled")
		}
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "gemini: generate content")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", perr.New(perr.ErrorCodeUnavailable, "gemini: empty response")
	}
	c.log.Debug().Str("model", c.cfg.Model).Int("chars", len(text)).Msg("generated mediation text")
	return text, nil
}
