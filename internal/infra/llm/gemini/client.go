package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	"github.com/yanqian/kisanmitra/pkg/metrics"
)

const providerName = "gemini"

// Config holds Gemini model settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client answers gateway completions with the Google Gemini API.
type Client struct {
	genai *genai.Client
	cfg   Config
}

var _ gateway.Provider = (*Client)(nil)

// NewClient dials the Gemini API. Close releases the underlying connection.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini model cannot be empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{genai: cl, cfg: cfg}, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return providerName
}

// Close releases the Gemini client.
func (c *Client) Close() error {
	return c.genai.Close()
}

// Complete runs one generateContent call.
func (c *Client) Complete(ctx context.Context, req gateway.Completion) (gateway.Reply, error) {
	m := c.genai.GenerativeModel(strings.TrimSpace(c.cfg.Model))
	m.GenerationConfig = generationConfig(c.cfg, req.JSON)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.System)},
	}

	resp, err := m.GenerateContent(ctx, buildParts(req)...)
	if err != nil {
		return gateway.Reply{}, toStatusError(err)
	}

	reply := gateway.Reply{Text: firstText(resp)}
	if resp.UsageMetadata != nil {
		reply.Usage = metrics.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return reply, nil
}

func generationConfig(cfg Config, jsonOutput bool) genai.GenerationConfig {
	gc := genai.GenerationConfig{
		Temperature: ptrFloat32(cfg.Temperature),
	}
	if cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = ptrInt32(int32(cfg.MaxTokens))
	}
	if jsonOutput {
		gc.ResponseMIMEType = "application/json"
	}
	return gc
}

func buildParts(req gateway.Completion) []genai.Part {
	parts := []genai.Part{genai.Text(req.Prompt)}
	if req.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: req.Image.MIMEType, Data: req.Image.Data})
	}
	return parts
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

// toStatusError extracts the HTTP status from REST transport errors.
func toStatusError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &upstream.StatusError{
			Provider: providerName,
			Status:   apiErr.Code,
			Message:  apiErr.Message,
			Err:      err,
		}
	}
	var coded interface{ HTTPCode() int }
	if errors.As(err, &coded) && coded.HTTPCode() > 0 {
		return &upstream.StatusError{
			Provider: providerName,
			Status:   coded.HTTPCode(),
			Err:      err,
		}
	}
	return err
}

func ptrFloat32(v float32) *float32 { return &v }

func ptrInt32(v int32) *int32 { return &v }
