package plantid

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/language"
	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
	"github.com/yanqian/kisanmitra/pkg/metrics"
)

const (
	defaultMinConfidence = 30
	defaultOrgan         = "leaf"

	noResultsMessage  = "Could not identify the plant from the image. Please upload a clearer photo of the leaf."
	lowDiseaseNote    = "Confidence too low to determine disease reliably."
	noDiseaseNote     = "No disease detected based on Pl@ntNet analysis."
	unknownPlantName  = "Unknown"
	notConfiguredText = "Plant identification is not configured."
)

var unclearMessages = map[string]string{
	"english": "The image is unclear. Please upload a clear photo of the affected leaf in good lighting.",
	"hindi":   "छवि स्पष्ट नहीं है। कृपया अच्छी रोशनी में प्रभावित पत्ती की एक स्पष्ट तस्वीर अपलोड करें।",
	"tamil":   "படம் தெளிவாக இல்லை. பாதிக்கப்பட்ட இலையின் தெளிவான புகைப்படத்தை நல்ல வெளிச்சத்தில் பதிவேற்றவும்.",
}

var supportedOrgans = map[string]struct{}{
	"leaf": {}, "flower": {}, "fruit": {}, "bark": {}, "auto": {},
}

// Service identifies plants and diseases from a photo.
type Service interface {
	Identify(ctx context.Context, req Request) (Result, error)
}

type service struct {
	cfg     Config
	client  Client
	advisor gateway.Provider
	logger  *slog.Logger
}

// NewService wires identification. A nil client disables the feature; a nil
// advisor returns the identification summary without generated advice.
func NewService(cfg Config, client Client, advisor gateway.Provider, logger *slog.Logger) Service {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = defaultMinConfidence
	}
	if strings.TrimSpace(cfg.DefaultOrgan) == "" {
		cfg.DefaultOrgan = defaultOrgan
	}
	return &service{cfg: cfg, client: client, advisor: advisor, logger: logger.With("component", "plantid.service")}
}

func (s *service) Identify(ctx context.Context, req Request) (Result, error) {
	if s.client == nil {
		return Result{}, apperrors.Wrap("not_found", notConfiguredText, nil)
	}
	organ := strings.ToLower(strings.TrimSpace(req.Organ))
	if organ == "" {
		organ = s.cfg.DefaultOrgan
	}
	if _, ok := supportedOrgans[organ]; !ok {
		return Result{}, apperrors.Wrap(upstream.CodeInvalidInput, "organ must be one of leaf, flower, fruit, bark or auto", nil)
	}
	img, err := upstream.DecodeImage(req.ImageBase64, s.cfg.MaxImageBytes)
	if err != nil {
		return Result{}, err
	}

	species, diseases, err := s.identify(ctx, img, organ)
	if err != nil {
		return Result{}, err
	}

	lang := language.Resolve(req.Language)
	result := s.summarize(species, diseases, lang)
	s.logger.Info("plant identification completed", "status", result.Status, "confidence", result.Confidence, "species", len(species), "diseases", len(diseases))
	if result.Status != StatusIdentified || s.advisor == nil {
		return result, nil
	}

	advice, err := s.advise(ctx, result.Message, req.Message, lang)
	if err != nil {
		return Result{}, err
	}
	result.Advice = advice
	return result, nil
}

func (s *service) identify(ctx context.Context, img upstream.Image, organ string) ([]SpeciesMatch, []DiseaseMatch, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	species, speciesErr := s.client.IdentifySpecies(ctx, img, organ)
	if speciesErr != nil {
		s.logger.Warn("species identification failed", "error", speciesErr)
	}
	diseases, diseaseErr := s.client.IdentifyDiseases(ctx, img, organ)
	if diseaseErr != nil {
		s.logger.Warn("disease identification failed", "error", diseaseErr)
	}
	if speciesErr != nil && diseaseErr != nil {
		return nil, nil, upstream.Classify(speciesErr)
	}
	return species, diseases, nil
}

// advise makes exactly one language model call grounded in the summary.
func (s *service) advise(ctx context.Context, summary, question string, lang language.Language) (string, error) {
	if s.cfg.AdviceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AdviceTimeout)
		defer cancel()
	}
	start := time.Now()
	reply, err := s.advisor.Complete(ctx, gateway.Completion{
		Route:  gateway.RouteTextChat,
		System: advicePrompt(lang, summary),
		Prompt: adviceQuestion(question),
	})
	elapsed := time.Since(start)
	metrics.UpstreamDurationSeconds.WithLabelValues(s.advisor.Name(), "plant_advice").Observe(elapsed.Seconds())
	if err != nil {
		classified := upstream.Classify(err)
		s.logger.Error("plant advice call failed", "provider", s.advisor.Name(), "code", apperrors.CodeOf(classified), "latency_ms", elapsed.Milliseconds(), "error", err)
		return "", classified
	}
	metrics.ObserveUsage(s.advisor.Name(), reply.Usage)
	text := strings.TrimSpace(reply.Text)
	if text == "" {
		return gateway.ChatFallback, nil
	}
	return text, nil
}

func (s *service) summarize(species []SpeciesMatch, diseases []DiseaseMatch, lang language.Language) Result {
	if len(species) == 0 && len(diseases) == 0 {
		return Result{Status: StatusNoResults, Message: noResultsMessage}
	}

	result := Result{Status: StatusIdentified}
	var lines []string
	if len(species) > 0 {
		top := bestSpecies(species)
		result.Confidence = percent(top.Score)
		if result.Confidence < s.cfg.MinConfidence {
			return Result{Status: StatusUnclearImage, Confidence: result.Confidence, Message: unclearMessage(lang)}
		}
		result.PlantName = firstNonEmpty(top.ScientificName, unknownPlantName)
		result.Scientific = top.ScientificName
		result.CommonNames = top.CommonNames
		result.Family = top.Family
		common := "N/A"
		if len(top.CommonNames) > 0 {
			common = strings.Join(top.CommonNames, ", ")
		}
		lines = append(lines, fmt.Sprintf("Plant identified: %s (%s). Confidence: %d%%.", result.PlantName, common, result.Confidence))
	}

	if len(diseases) > 0 {
		top := bestDisease(diseases)
		confidence := percent(top.Score)
		if confidence < s.cfg.MinConfidence {
			result.DiseaseNote = lowDiseaseNote
			lines = append(lines, "Disease detection: "+lowDiseaseNote)
		} else {
			result.Disease = &Disease{Name: firstNonEmpty(top.Name, "Unknown disease"), Confidence: confidence}
			lines = append(lines, fmt.Sprintf("Disease detected: %s. Disease confidence: %d%%.", result.Disease.Name, confidence))
		}
	} else {
		result.DiseaseNote = noDiseaseNote
		lines = append(lines, noDiseaseNote)
	}
	result.Message = strings.Join(lines, " ")
	return result
}

func unclearMessage(lang language.Language) string {
	if msg, ok := unclearMessages[lang.Value]; ok {
		return msg
	}
	return unclearMessages[language.DefaultValue]
}

func bestSpecies(matches []SpeciesMatch) SpeciesMatch {
	sorted := append([]SpeciesMatch(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	return sorted[0]
}

func bestDisease(matches []DiseaseMatch) DiseaseMatch {
	sorted := append([]DiseaseMatch(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	return sorted[0]
}

func percent(score float64) int {
	value := math.Round(score * 100)
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return int(value)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
