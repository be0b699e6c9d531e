package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	"github.com/yanqian/kisanmitra/pkg/metrics"
)

const providerName = "openai"

// Config holds the settings for an OpenAI compatible chat endpoint.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	JSONMode    bool
}

// Client answers gateway completions through an OpenAI compatible API.
type Client struct {
	api *goopenai.Client
	cfg Config
}

var _ gateway.Provider = (*Client)(nil)

// NewClient constructs a provider client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai api key cannot be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model cannot be empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api: goopenai.NewClientWithConfig(clientCfg),
		cfg: cfg,
	}, nil
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return providerName
}

// Complete sends one non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, req gateway.Completion) (gateway.Reply, error) {
	chatReq := goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			userMessage(req),
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	if req.JSON && c.cfg.JSONMode {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return gateway.Reply{}, toStatusError(err)
	}

	reply := gateway.Reply{
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) > 0 {
		reply.Text = resp.Choices[0].Message.Content
	}
	return reply, nil
}

func userMessage(req gateway.Completion) goopenai.ChatCompletionMessage {
	if req.Image == nil {
		return goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt}
	}
	return goopenai.ChatCompletionMessage{
		Role: goopenai.ChatMessageRoleUser,
		MultiContent: []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    req.Image.DataURL(),
					Detail: goopenai.ImageURLDetailAuto,
				},
			},
		},
	}
}

// toStatusError keeps the HTTP status of a failed call so the gateway can classify it.
func toStatusError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Type
		if apiErr.Code != nil {
			code = strings.TrimSpace(fmt.Sprint(apiErr.Code) + " " + apiErr.Type)
		}
		return &upstream.StatusError{
			Provider: providerName,
			Status:   apiErr.HTTPStatusCode,
			Code:     code,
			Message:  apiErr.Message,
			Err:      err,
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &upstream.StatusError{
			Provider: providerName,
			Status:   reqErr.HTTPStatusCode,
			Err:      err,
		}
	}
	return err
}
