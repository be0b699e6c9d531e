package gateway

import (
	"context"

	"github.com/yanqian/kisanmitra/internal/domain/language"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
)

type adapterInput struct {
	Language language.Language
	Message  string
	Image    *upstream.Image
}

// adapterFunc performs exactly one upstream call and returns either the raw
// reply or a classified error.
type adapterFunc func(ctx context.Context, provider Provider, in adapterInput) (Reply, error)

func defaultAdapters() map[Route]adapterFunc {
	return map[Route]adapterFunc{
		RouteTextChat:   textChat,
		RouteVisionChat: visionChat,
		RouteAnalysis:   analyze,
	}
}

func textChat(ctx context.Context, provider Provider, in adapterInput) (Reply, error) {
	return complete(ctx, provider, Completion{
		Route:  RouteTextChat,
		System: textChatPrompt(in.Language),
		Prompt: in.Message,
	})
}

func visionChat(ctx context.Context, provider Provider, in adapterInput) (Reply, error) {
	return complete(ctx, provider, Completion{
		Route:  RouteVisionChat,
		System: visionChatPrompt(in.Language),
		Prompt: questionOrDefault(in.Message, defaultVisionQuestion),
		Image:  in.Image,
	})
}

func analyze(ctx context.Context, provider Provider, in adapterInput) (Reply, error) {
	return complete(ctx, provider, Completion{
		Route:  RouteAnalysis,
		System: analysisPrompt(in.Language),
		Prompt: questionOrDefault(in.Message, defaultAnalysisQuestion),
		Image:  in.Image,
		JSON:   true,
	})
}

func complete(ctx context.Context, provider Provider, req Completion) (Reply, error) {
	reply, err := provider.Complete(ctx, req)
	if err != nil {
		return Reply{}, upstream.Classify(err)
	}
	return reply, nil
}
