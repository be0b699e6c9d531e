package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want Route
	}{
		{"text only", Request{Message: "What fertilizer for rice?"}, RouteTextChat},
		{"text with analyze mode but no image", Request{Message: "hi", Mode: ModeAnalyze}, RouteTextChat},
		{"image without mode", Request{ImageBase64: "abc"}, RouteVisionChat},
		{"image with chat mode", Request{ImageBase64: "abc", Mode: ModeChat, Message: "what is this?"}, RouteVisionChat},
		{"image with unknown mode", Request{ImageBase64: "abc", Mode: "describe"}, RouteVisionChat},
		{"image with analyze mode", Request{ImageBase64: "abc", Mode: ModeAnalyze}, RouteAnalysis},
		{"analyze mode is case insensitive", Request{ImageBase64: "abc", Mode: " Analyze "}, RouteAnalysis},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Classify(tc.req)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestClassifyRejectsEmptyRequest(t *testing.T) {
	for _, req := range []Request{{}, {Message: "   ", ImageBase64: "\n"}, {Language: "hindi", Mode: ModeAnalyze}} {
		route, err := Classify(req)
		require.Error(t, err)
		require.Equal(t, RouteUnknown, route)
		require.True(t, apperrors.IsCode(err, upstream.CodeInvalidInput))
		require.Equal(t, MsgMissingInput, apperrors.MessageOf(err))
	}
}

func TestRouteString(t *testing.T) {
	require.Equal(t, "text_chat", RouteTextChat.String())
	require.Equal(t, "vision_chat", RouteVisionChat.String())
	require.Equal(t, "analysis", RouteAnalysis.String())
	require.Equal(t, "unclassified", RouteUnknown.String())
}
