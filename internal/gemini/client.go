// Package gemini wraps the Gemini API client with the retry, rate-limit
// parsing, and response cleanup the pipeline stages share. The client is
// constructed once in main and injected into every stage that calls out.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is a thin wrapper over the genai SDK client.
type Client struct {
	genai *genai.Client
	log   *slog.Logger
}

// GenConfig controls one generation call.
type GenConfig struct {
	Temperature     float32
	MaxOutputTokens int32
	// JSONResponse forces an application/json response MIME type.
	JSONResponse bool
	// MaxRetries overrides the default retry budget when > 0.
	MaxRetries int
}

// NewClient dials the Gemini API.
func NewClient(ctx context.Context, apiKey string, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: dial: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{genai: cl, log: log}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.genai.Close()
}

// GenerateText runs one text generation with retry and returns the first
// text part, code fences stripped.
func (c *Client) GenerateText(ctx context.Context, model string, cfg GenConfig, prompts ...string) (string, error) {
	parts := make([]genai.Part, 0, len(prompts))
	for _, p := range prompts {
		parts = append(parts, genai.Text(p))
	}
	resp, err := c.generateWithRetry(ctx, model, cfg, parts...)
	if err != nil {
		return "", err
	}
	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: empty response from %s", model)
	}
	return StripCodeFences(txt), nil
}

func (c *Client) generateOnce(ctx context.Context, model string, cfg GenConfig, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	m := c.genai.GenerativeModel(strings.TrimSpace(model))
	gc := genai.GenerationConfig{}
	if cfg.Temperature > 0 {
		gc.Temperature = ptrFloat32(cfg.Temperature)
	}
	if cfg.MaxOutputTokens > 0 {
		gc.MaxOutputTokens = ptrInt32(cfg.MaxOutputTokens)
	}
	if cfg.JSONResponse {
		gc.ResponseMIMEType = "application/json"
	}
	m.GenerationConfig = gc
	return m.GenerateContent(ctx, parts...)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return strings.TrimSpace(string(t))
			}
		}
	}
	return ""
}

// StripCodeFences removes a surrounding markdown code fence if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
