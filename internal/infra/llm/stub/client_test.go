package stub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
)

func TestCompleteIsDeterministic(t *testing.T) {
	c := NewClient()
	req := gateway.Completion{Route: gateway.RouteTextChat, Prompt: "When to sow wheat?"}

	first, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	second, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Contains(t, first.Text, "When to sow wheat?")
}

func TestCompleteAnalysisReturnsJSON(t *testing.T) {
	reply, err := NewClient().Complete(context.Background(), gateway.Completion{
		Route:  gateway.RouteAnalysis,
		Prompt: "analyze",
		Image:  &upstream.Image{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"},
	})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(reply.Text), &out))
	require.Equal(t, gateway.StatusHealthy, out["status"])
	require.NotEmpty(t, out["recommendations"])
}

func TestCompleteHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient().Complete(ctx, gateway.Completion{Prompt: "hi"})
	require.ErrorIs(t, err, context.Canceled)
}
