package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/kisanmitra/internal/infra/config"
)

const defaultReplayBodyLimit = 1 << 20

var errReplayBodyTooLarge = errors.New("request body exceeds replay limit")

// replayableMethods are the only methods replayed on transient failures. POST
// is never replayed: a gateway call may already have consumed upstream credits.
var replayableMethods = map[string]struct{}{
	http.MethodGet: {},
	http.MethodPut: {},
}

// transientStatuses are local failures worth another attempt. 502 is excluded
// because it reports an already classified upstream failure.
var transientStatuses = map[int]struct{}{
	http.StatusInternalServerError: {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

type replayer struct {
	next        http.Handler
	maxAttempts int
	backoff     time.Duration
	bodyLimit   int64
	exclude     map[string]struct{}
	logger      *slog.Logger
}

func withRetry(next http.Handler, cfg config.RetryConfig, bodyLimit int64, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return next
	}
	if bodyLimit <= 0 {
		bodyLimit = defaultReplayBodyLimit
	}
	exclude := make(map[string]struct{}, len(cfg.Exclude))
	for _, path := range cfg.Exclude {
		exclude[path] = struct{}{}
	}
	return &replayer{
		next:        next,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.BaseBackoff,
		bodyLimit:   bodyLimit,
		exclude:     exclude,
		logger:      logger.With("component", "http.retry"),
	}
}

func (p *replayer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !p.replayable(r) {
		p.next.ServeHTTP(w, r)
		return
	}
	body, err := bufferBody(r, p.bodyLimit)
	if err != nil {
		if errors.Is(err, errReplayBodyTooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	ctx := r.Context()
	for attempt := 1; ; attempt++ {
		out := newBufferedResponse()
		attemptReq := r.Clone(ctx)
		attemptReq.Body = io.NopCloser(bytes.NewReader(body))
		attemptReq.ContentLength = int64(len(body))
		p.next.ServeHTTP(out, attemptReq)

		_, transient := transientStatuses[out.status]
		if !transient || attempt >= p.maxAttempts {
			out.flushTo(w)
			return
		}
		p.logger.Warn("transient failure, replaying request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", out.status,
			"attempt", attempt,
			"request_id", r.Header.Get(requestIDHeader),
		)
		if !sleepCtx(ctx, p.backoff<<(attempt-1)) {
			out.flushTo(w)
			return
		}
	}
}

func (p *replayer) replayable(r *http.Request) bool {
	if _, ok := replayableMethods[r.Method]; !ok {
		return false
	}
	_, excluded := p.exclude[r.URL.Path]
	return !excluded
}

// sleepCtx waits for d and reports false when ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func bufferBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errReplayBodyTooLarge
	}
	return data, nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// bufferedResponse holds one attempt's answer until it is known to be final.
type bufferedResponse struct {
	header http.Header
	body   bytes.Buffer
	status int
	wrote  bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wrote {
		return
	}
	b.status = status
	b.wrote = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wrote = true
	return b.body.Write(p)
}

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, values := range b.header {
		dst[k] = append([]string(nil), values...)
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
