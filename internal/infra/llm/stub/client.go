package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/pkg/metrics"
)

// Client is a deterministic, no-network provider for local runs and CI.
// Analysis calls return schema-valid JSON so the normalizer path is exercised end to end.
type Client struct{}

var _ gateway.Provider = (*Client)(nil)

func NewClient() *Client { return &Client{} }

func (c *Client) Name() string { return "stub" }

func (c *Client) Complete(ctx context.Context, req gateway.Completion) (gateway.Reply, error) {
	if err := ctx.Err(); err != nil {
		return gateway.Reply{}, err
	}
	var seed []byte
	seed = append(seed, req.Prompt...)
	if req.Image != nil {
		seed = append(seed, req.Image.Data...)
	}
	sum := sha256.Sum256(seed)
	short := hex.EncodeToString(sum[:4])

	text := fmt.Sprintf("Offline advisory (%s): %s", short, truncate(req.Prompt, 120))
	if req.Route == gateway.RouteAnalysis {
		out := map[string]any{
			"plantName":       "Unknown plant",
			"status":          gateway.StatusHealthy,
			"confidence":      50 + int(sum[0])%40,
			"description":     fmt.Sprintf("Stubbed analysis %s.", short),
			"recommendations": []string{"Keep monitoring the crop", "Water early in the morning"},
			"precautions":     []string{"Consult a local agricultural expert for serious issues."},
		}
		b, err := json.Marshal(out)
		if err != nil {
			return gateway.Reply{}, err
		}
		text = string(b)
	}

	return gateway.Reply{
		Text:  text,
		Usage: metrics.TokenUsage{PromptTokens: len(req.Prompt) / 4, TotalTokens: len(req.Prompt) / 4},
	}, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
