package upstream

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    string
		message string
	}{
		{"rate limited", &StatusError{Provider: "openai", Status: http.StatusTooManyRequests}, CodeRateLimited, MsgRateLimited},
		{"payment required", &StatusError{Provider: "openai", Status: http.StatusPaymentRequired}, CodeQuotaExhausted, MsgQuotaExhausted},
		{"insufficient quota 429", &StatusError{Provider: "openai", Status: http.StatusTooManyRequests, Code: "insufficient_quota"}, CodeQuotaExhausted, MsgQuotaExhausted},
		{"unsupported media", &StatusError{Provider: "gemini", Status: http.StatusUnsupportedMediaType}, CodeUnsupportedMedia, MsgUnsupportedMedia},
		{"server error", &StatusError{Provider: "gemini", Status: http.StatusInternalServerError}, CodeUpstreamError, MsgUpstreamError},
		{"unauthorized", &StatusError{Provider: "openai", Status: http.StatusUnauthorized}, CodeUpstreamError, MsgUpstreamError},
		{"transport", errors.New("connection reset"), CodeUpstreamError, MsgUpstreamError},
		{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), CodeUpstreamError, MsgTimeout},
		{"wrapped status", fmt.Errorf("complete: %w", &StatusError{Status: http.StatusTooManyRequests}), CodeRateLimited, MsgRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			require.Equal(t, tc.code, apperrors.CodeOf(got))
			require.Equal(t, tc.message, apperrors.MessageOf(got))
		})
	}
}

func TestClassifyKeepsClassifiedErrors(t *testing.T) {
	original := apperrors.Wrap(CodeInvalidInput, "message is too long", nil)
	require.Same(t, original, Classify(original))
	require.NoError(t, Classify(nil))
}

func TestDecodeImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)

	img, err := DecodeImage(encoded, 0)
	require.NoError(t, err)
	require.Equal(t, "image/png", img.MIMEType)
	require.Equal(t, pngHeader, img.Data)
	require.Equal(t, ".png", img.Extension())

	fromURL, err := DecodeImage("data:image/jpeg;base64,"+encoded, 0)
	require.NoError(t, err)
	require.Equal(t, "image/png", fromURL.MIMEType, "sniffed type wins over the declared one")
	require.Equal(t, "data:image/png;base64,"+encoded, fromURL.DataURL())
}

func TestDecodeImageErrors(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		maxBytes int
		code     string
	}{
		{"empty", "   ", 0, CodeInvalidInput},
		{"not base64", "***not-base64***", 0, CodeInvalidInput},
		{"data url without base64", "data:image/png,abc", 0, CodeInvalidInput},
		{"text payload", base64.StdEncoding.EncodeToString([]byte("hello farmer")), 0, CodeUnsupportedMedia},
		{"too large", base64.StdEncoding.EncodeToString(pngHeader), 4, CodeInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeImage(tc.input, tc.maxBytes)
			require.Error(t, err)
			require.Equal(t, tc.code, apperrors.CodeOf(err))
		})
	}
}

func TestDecodeImageHEIC(t *testing.T) {
	data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
	img, err := DecodeImage(base64.StdEncoding.EncodeToString(data), 0)
	require.NoError(t, err)
	require.Equal(t, "image/heic", img.MIMEType)
}
