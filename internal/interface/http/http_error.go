package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

// msgServiceError is the only message clients see for unexpected failures.
const msgServiceError = "Service error. Please try again later."

// retryAfterSeconds is advertised on 429 answers; it matches the limiter window.
const retryAfterSeconds = "60"

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

var statusByCode = map[string]int{
	upstream.CodeInvalidInput:     http.StatusBadRequest,
	"unauthorized":                http.StatusUnauthorized,
	"not_found":                   http.StatusNotFound,
	upstream.CodeUnsupportedMedia: http.StatusUnsupportedMediaType,
	upstream.CodeQuotaExhausted:   http.StatusPaymentRequired,
	upstream.CodeRateLimited:      http.StatusTooManyRequests,
	upstream.CodeUpstreamError:    http.StatusBadGateway,
}

// asHTTPError maps domain errors onto transport statuses. Unknown codes become a
// generic 500 so wrapped internals never reach the client.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewHTTPError(http.StatusRequestEntityTooLarge, upstream.CodeInvalidInput, "Request body too large.", err)
	}
	code := apperrors.CodeOf(err)
	if status, ok := statusByCode[code]; ok {
		message := apperrors.MessageOf(err)
		if message == "" {
			message = http.StatusText(status)
		}
		return NewHTTPError(status, code, message, err)
	}
	if code == "" {
		code = "internal_error"
	}
	return NewHTTPError(http.StatusInternalServerError, code, msgServiceError, err)
}

func abortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
