package gateway

import (
	"strings"

	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

// MsgMissingInput is returned when a request carries neither text nor image.
const MsgMissingInput = "Please provide a message or an image."

// Classify picks the processing route for req without touching the network.
func Classify(req Request) (Route, error) {
	hasImage := strings.TrimSpace(req.ImageBase64) != ""
	hasMessage := strings.TrimSpace(req.Message) != ""

	switch {
	case hasImage && strings.EqualFold(strings.TrimSpace(req.Mode), ModeAnalyze):
		return RouteAnalysis, nil
	case hasImage:
		return RouteVisionChat, nil
	case hasMessage:
		return RouteTextChat, nil
	default:
		return RouteUnknown, apperrors.Wrap(upstream.CodeInvalidInput, MsgMissingInput, nil)
	}
}
