package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

// Error codes shared by every component that talks to an upstream provider.
const (
	CodeInvalidInput     = "invalid_input"
	CodeRateLimited      = "rate_limited"
	CodeQuotaExhausted   = "quota_exhausted"
	CodeUpstreamError    = "upstream_error"
	CodeUnsupportedMedia = "unsupported_media"
)

// User facing messages for classified upstream failures.
const (
	MsgRateLimited      = "Rate limit exceeded. Please try again later."
	MsgQuotaExhausted   = "AI credits exhausted. Please add credits."
	MsgUpstreamError    = "AI service error"
	MsgTimeout          = "AI service timed out. Please try again."
	MsgUnsupportedMedia = "Unsupported image format. Please upload a JPEG, PNG or WebP photo."
)

// StatusError reports a non-2xx answer from an upstream provider.
type StatusError struct {
	Provider string
	Status   int
	// Code carries the provider specific error code or type when one is available.
	Code    string
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: status=%d", e.Provider, e.Status)
	if e.Code != "" {
		msg += " code=" + e.Code
	}
	if e.Message != "" {
		msg += " message=" + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Classify converts a raw provider error into an AppError tagged with one of the
// upstream codes. Errors that are already classified pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	switch apperrors.CodeOf(err) {
	case CodeInvalidInput, CodeRateLimited, CodeQuotaExhausted, CodeUpstreamError, CodeUnsupportedMedia:
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(CodeUpstreamError, MsgTimeout, err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return apperrors.Wrap(CodeUpstreamError, MsgUpstreamError, err)
	}
	switch {
	case statusErr.Status == http.StatusPaymentRequired:
		return apperrors.Wrap(CodeQuotaExhausted, MsgQuotaExhausted, err)
	case statusErr.Status == http.StatusTooManyRequests && signalsBilling(statusErr):
		return apperrors.Wrap(CodeQuotaExhausted, MsgQuotaExhausted, err)
	case statusErr.Status == http.StatusTooManyRequests:
		return apperrors.Wrap(CodeRateLimited, MsgRateLimited, err)
	case statusErr.Status == http.StatusUnsupportedMediaType:
		return apperrors.Wrap(CodeUnsupportedMedia, MsgUnsupportedMedia, err)
	default:
		return apperrors.Wrap(CodeUpstreamError, MsgUpstreamError, err)
	}
}

var billingMarkers = []string{"insufficient_quota", "billing", "credits", "payment"}

func signalsBilling(err *StatusError) bool {
	haystack := strings.ToLower(err.Code + " " + err.Message)
	for _, marker := range billingMarkers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
