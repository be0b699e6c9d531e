package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/yanqian/kisanmitra/internal/domain/language"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
	"github.com/yanqian/kisanmitra/pkg/metrics"
	"github.com/yanqian/kisanmitra/pkg/tracing"
)

// MsgServiceError is the catch-all message for failures that carry no classification.
const MsgServiceError = "Service error. Please try again later."

// Service routes chat and analysis requests to a single upstream call.
type Service interface {
	Handle(ctx context.Context, req Request) (Response, error)
}

type service struct {
	cfg      Config
	provider Provider
	tokens   TokenCounter
	prefs    LanguagePreferences
	adapters map[Route]adapterFunc
	logger   *slog.Logger
}

// NewService wires the gateway. tokens and prefs may be nil.
func NewService(cfg Config, provider Provider, tokens TokenCounter, prefs LanguagePreferences, logger *slog.Logger) Service {
	if cfg.DefaultConfidence <= 0 || cfg.DefaultConfidence > 100 {
		cfg.DefaultConfidence = DefaultConfidence
	}
	return &service{
		cfg:      cfg,
		provider: provider,
		tokens:   tokens,
		prefs:    prefs,
		adapters: defaultAdapters(),
		logger:   logger.With("component", "gateway.service"),
	}
}

func (s *service) Handle(ctx context.Context, req Request) (Response, error) {
	route, err := Classify(req)
	if err != nil {
		s.recordOutcome(route, err)
		return Response{}, err
	}

	in, err := s.prepare(ctx, route, req)
	if err != nil {
		s.recordOutcome(route, err)
		return Response{}, err
	}

	adapter, ok := s.adapters[route]
	if !ok {
		err := apperrors.Wrap("internal_error", MsgServiceError, nil)
		s.recordOutcome(route, err)
		return Response{}, err
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := adapter(callCtx, s.provider, in)
	elapsed := time.Since(start)
	metrics.UpstreamDurationSeconds.WithLabelValues(s.provider.Name(), route.String()).Observe(elapsed.Seconds())
	if err != nil {
		s.logUpstreamFailure(ctx, route, err, elapsed)
		s.recordOutcome(route, err)
		return Response{}, err
	}
	metrics.ObserveUsage(s.provider.Name(), reply.Usage)
	attrs := []any{
		"route", route.String(),
		"provider", s.provider.Name(),
		"language", in.Language.Value,
		"latency_ms", elapsed.Milliseconds(),
		"prompt_tokens", reply.Usage.PromptTokens,
		"completion_tokens", reply.Usage.CompletionTokens,
	}
	s.logger.Info("upstream call completed", append(attrs, tracing.LogAttrs(ctx)...)...)

	resp, err := s.normalize(route, reply)
	s.recordOutcome(route, err)
	return resp, err
}

func (s *service) prepare(ctx context.Context, route Route, req Request) (adapterInput, error) {
	in := adapterInput{
		Language: s.resolveLanguage(ctx, req),
		Message:  strings.TrimSpace(req.Message),
	}
	if in.Message != "" && s.tokens != nil && s.cfg.MaxMessageTokens > 0 {
		if count := s.tokens.Count(in.Message); count > s.cfg.MaxMessageTokens {
			return adapterInput{}, apperrors.Wrap(upstream.CodeInvalidInput, "Message is too long. Please shorten your question.", nil)
		}
	}
	if route == RouteVisionChat || route == RouteAnalysis {
		img, err := upstream.DecodeImage(req.ImageBase64, s.cfg.MaxImageBytes)
		if err != nil {
			return adapterInput{}, err
		}
		in.Image = &img
	}
	return in, nil
}

func (s *service) resolveLanguage(ctx context.Context, req Request) language.Language {
	if strings.TrimSpace(req.Language) != "" || req.UserID == "" || s.prefs == nil {
		return language.Resolve(req.Language)
	}
	preferred, ok, err := s.prefs.PreferredLanguage(ctx, req.UserID)
	if err != nil {
		s.logger.Warn("preferred language lookup failed", "user_id", req.UserID, "error", err)
		return language.Resolve("")
	}
	if !ok {
		return language.Resolve("")
	}
	return language.Resolve(preferred)
}

func (s *service) normalize(route Route, reply Reply) (Response, error) {
	if route != RouteAnalysis {
		return Response{Response: normalizeChat(reply.Text)}, nil
	}
	result, parsed := normalizeAnalysis(reply.Text, s.cfg.DefaultConfidence)
	if !parsed {
		metrics.AnalysisFallbacksTotal.Inc()
		s.logger.Warn("analysis reply had no JSON object, using fallback result", "length", len(reply.Text))
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return Response{}, apperrors.Wrap("internal_error", MsgServiceError, err)
	}
	return Response{Response: string(payload)}, nil
}

func (s *service) logUpstreamFailure(ctx context.Context, route Route, err error, elapsed time.Duration) {
	attrs := []any{"route", route.String(), "provider", s.provider.Name(), "latency_ms", elapsed.Milliseconds(), "error", err}
	attrs = append(attrs, tracing.LogAttrs(ctx)...)
	switch apperrors.CodeOf(err) {
	case upstream.CodeRateLimited:
		s.logger.Warn("upstream rate limited, client may retry later", attrs...)
	case upstream.CodeQuotaExhausted:
		s.logger.Error("upstream quota exhausted, operator action required", attrs...)
	default:
		s.logger.Error("upstream call failed", attrs...)
	}
}

func (s *service) recordOutcome(route Route, err error) {
	outcome := "success"
	if err != nil {
		outcome = apperrors.CodeOf(err)
		if outcome == "" {
			outcome = "internal_error"
		}
	}
	metrics.GatewayOutcomesTotal.WithLabelValues(route.String(), outcome).Inc()
}
