package plantid

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

var leafPhoto = base64.StdEncoding.EncodeToString([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01"))

func TestIdentifySpeciesAndDisease(t *testing.T) {
	client := &stubClient{
		species: []SpeciesMatch{
			{Score: 0.12, ScientificName: "Solanum nigrum"},
			{Score: 0.83, ScientificName: "Solanum lycopersicum", CommonNames: []string{"Tomato", "Garden tomato"}, Family: "Solanaceae"},
		},
		diseases: []DiseaseMatch{{Score: 0.64, Name: "Early blight"}},
	}
	svc := newTestService(client)

	res, err := svc.Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.NoError(t, err)
	require.Equal(t, StatusIdentified, res.Status)
	require.Equal(t, "Solanum lycopersicum", res.PlantName)
	require.Equal(t, "Solanum lycopersicum", res.Scientific)
	require.Equal(t, 83, res.Confidence)
	require.Equal(t, "Solanaceae", res.Family)
	require.Equal(t, &Disease{Name: "Early blight", Confidence: 64}, res.Disease)
	require.Contains(t, res.Message, "Tomato, Garden tomato")
	require.Equal(t, "leaf", client.lastOrgan)
}

func TestIdentifyUnclearImageIsLocalized(t *testing.T) {
	client := &stubClient{species: []SpeciesMatch{{Score: 0.2, ScientificName: "Oryza sativa"}}}
	svc := newTestService(client)

	res, err := svc.Identify(context.Background(), Request{ImageBase64: leafPhoto, Language: "hindi"})
	require.NoError(t, err)
	require.Equal(t, StatusUnclearImage, res.Status)
	require.Equal(t, unclearMessages["hindi"], res.Message)
	require.Empty(t, res.PlantName)

	res, err = svc.Identify(context.Background(), Request{ImageBase64: leafPhoto, Language: "punjabi"})
	require.NoError(t, err)
	require.Equal(t, unclearMessages["english"], res.Message)
}

func TestIdentifyLowDiseaseConfidence(t *testing.T) {
	client := &stubClient{
		species:  []SpeciesMatch{{Score: 0.7, ScientificName: "Zea mays"}},
		diseases: []DiseaseMatch{{Score: 0.1, Name: "Rust"}},
	}
	res, err := newTestService(client).Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.NoError(t, err)
	require.Nil(t, res.Disease)
	require.Equal(t, lowDiseaseNote, res.DiseaseNote)
}

func TestIdentifyNoDisease(t *testing.T) {
	client := &stubClient{species: []SpeciesMatch{{Score: 0.9, ScientificName: "Triticum aestivum"}}}
	res, err := newTestService(client).Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.NoError(t, err)
	require.Equal(t, noDiseaseNote, res.DiseaseNote)
	require.Contains(t, res.Message, "N/A")
}

func TestIdentifyNoResults(t *testing.T) {
	res, err := newTestService(&stubClient{}).Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.NoError(t, err)
	require.Equal(t, StatusNoResults, res.Status)
	require.Equal(t, noResultsMessage, res.Message)
}

func TestIdentifyToleratesOneFailure(t *testing.T) {
	client := &stubClient{
		speciesErr: errors.New("timeout"),
		diseases:   []DiseaseMatch{{Score: 0.5, Name: "Leaf spot"}},
	}
	res, err := newTestService(client).Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.NoError(t, err)
	require.Equal(t, StatusIdentified, res.Status)
	require.Equal(t, "Leaf spot", res.Disease.Name)
}

func TestIdentifyBothFailures(t *testing.T) {
	client := &stubClient{
		speciesErr: &upstream.StatusError{Provider: "plantnet", Status: http.StatusTooManyRequests},
		diseaseErr: errors.New("boom"),
	}
	_, err := newTestService(client).Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.True(t, apperrors.IsCode(err, upstream.CodeRateLimited))
}

func TestIdentifyValidation(t *testing.T) {
	svc := newTestService(&stubClient{})

	_, err := svc.Identify(context.Background(), Request{ImageBase64: leafPhoto, Organ: "root"})
	require.True(t, apperrors.IsCode(err, upstream.CodeInvalidInput))

	_, err = svc.Identify(context.Background(), Request{})
	require.True(t, apperrors.IsCode(err, upstream.CodeInvalidInput))

	disabled := NewService(Config{}, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err = disabled.Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestIdentifyAdviceIsLocalizedAndGrounded(t *testing.T) {
	client := &stubClient{
		species:  []SpeciesMatch{{Score: 0.83, ScientificName: "Solanum lycopersicum", CommonNames: []string{"Tomato"}}},
		diseases: []DiseaseMatch{{Score: 0.64, Name: "Early blight"}},
	}
	advisor := &stubAdvisor{completeFn: func(_ context.Context, _ gateway.Completion) (gateway.Reply, error) {
		return gateway.Reply{Text: "  अगेती झुलसा रोग है।  "}, nil
	}}
	svc := newAdvisedService(client, advisor)

	res, err := svc.Identify(context.Background(), Request{ImageBase64: leafPhoto, Language: "hi", Message: "What spray should I use?"})
	require.NoError(t, err)
	require.Equal(t, 1, advisor.calls)
	require.Equal(t, "अगेती झुलसा रोग है।", res.Advice)
	require.Contains(t, advisor.last.System, "Respond in Hindi language.")
	require.Contains(t, advisor.last.System, res.Message)
	require.Contains(t, advisor.last.System, "Early blight")
	require.Contains(t, advisor.last.System, gateway.Disclaimer)
	require.Equal(t, "What spray should I use?", advisor.last.Prompt)
	require.Nil(t, advisor.last.Image)
}

func TestIdentifyAdviceDefaults(t *testing.T) {
	client := &stubClient{species: []SpeciesMatch{{Score: 0.9, ScientificName: "Oryza sativa"}}}
	advisor := &stubAdvisor{}
	svc := newAdvisedService(client, advisor)

	res, err := svc.Identify(context.Background(), Request{ImageBase64: leafPhoto, Language: "klingon"})
	require.NoError(t, err)
	require.Equal(t, gateway.ChatFallback, res.Advice)
	require.Equal(t, defaultAdviceQuestion, advisor.last.Prompt)
	require.Contains(t, advisor.last.System, "Respond in English language.")
}

func TestIdentifyAdviceErrorsAreClassified(t *testing.T) {
	client := &stubClient{species: []SpeciesMatch{{Score: 0.9, ScientificName: "Oryza sativa"}}}
	advisor := &stubAdvisor{completeFn: func(_ context.Context, _ gateway.Completion) (gateway.Reply, error) {
		return gateway.Reply{}, &upstream.StatusError{Provider: "openai", Status: http.StatusTooManyRequests, Message: "slow down"}
	}}
	svc := newAdvisedService(client, advisor)

	_, err := svc.Identify(context.Background(), Request{ImageBase64: leafPhoto})
	require.True(t, apperrors.IsCode(err, upstream.CodeRateLimited))
}

func TestIdentifySkipsAdviceWhenNotIdentified(t *testing.T) {
	advisor := &stubAdvisor{}
	for _, client := range []*stubClient{
		{species: []SpeciesMatch{{Score: 0.1, ScientificName: "Zea mays"}}},
		{},
	} {
		res, err := newAdvisedService(client, advisor).Identify(context.Background(), Request{ImageBase64: leafPhoto})
		require.NoError(t, err)
		require.Empty(t, res.Advice)
	}
	require.Zero(t, advisor.calls)
}

func newTestService(client Client) Service {
	return NewService(Config{}, client, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newAdvisedService(client Client, advisor gateway.Provider) Service {
	return NewService(Config{AdviceTimeout: time.Second}, client, advisor, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type stubAdvisor struct {
	completeFn func(ctx context.Context, req gateway.Completion) (gateway.Reply, error)
	calls      int
	last       gateway.Completion
}

func (s *stubAdvisor) Name() string { return "stub" }

func (s *stubAdvisor) Complete(ctx context.Context, req gateway.Completion) (gateway.Reply, error) {
	s.calls++
	s.last = req
	if s.completeFn != nil {
		return s.completeFn(ctx, req)
	}
	return gateway.Reply{}, nil
}

type stubClient struct {
	species    []SpeciesMatch
	diseases   []DiseaseMatch
	speciesErr error
	diseaseErr error
	lastOrgan  string
}

func (s *stubClient) IdentifySpecies(_ context.Context, _ upstream.Image, organ string) ([]SpeciesMatch, error) {
	s.lastOrgan = organ
	return s.species, s.speciesErr
}

func (s *stubClient) IdentifyDiseases(_ context.Context, _ upstream.Image, organ string) ([]DiseaseMatch, error) {
	return s.diseases, s.diseaseErr
}
