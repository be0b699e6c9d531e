package gateway

import (
	"context"
	"time"

	"github.com/yanqian/kisanmitra/internal/domain/upstream"
	"github.com/yanqian/kisanmitra/pkg/metrics"
)

// Route is the processing path chosen for a request.
type Route int

const (
	RouteUnknown Route = iota
	RouteTextChat
	RouteVisionChat
	RouteAnalysis
)

func (r Route) String() string {
	switch r {
	case RouteTextChat:
		return "text_chat"
	case RouteVisionChat:
		return "vision_chat"
	case RouteAnalysis:
		return "analysis"
	default:
		return "unclassified"
	}
}

// Modes accepted in Request.Mode.
const (
	ModeAnalyze = "analyze"
	ModeChat    = "chat"
)

// Request is the payload accepted by the gateway endpoint.
type Request struct {
	Message     string `json:"message"`
	ImageBase64 string `json:"imageBase64"`
	Language    string `json:"language"`
	Mode        string `json:"mode"`
	// UserID is the verified caller, empty for anonymous requests.
	UserID string `json:"-"`
}

// Response is the success half of the client contract.
type Response struct {
	Response string `json:"response"`
}

// Analysis status values.
const (
	StatusHealthy            = "healthy"
	StatusDiseased           = "diseased"
	StatusPest               = "pest"
	StatusNutrientDeficiency = "nutrient_deficiency"
)

// Severity values.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// AnalysisResult is the structured plant-health verdict returned on the analysis route.
type AnalysisResult struct {
	PlantName       string   `json:"plantName"`
	Status          string   `json:"status"`
	Confidence      int      `json:"confidence"`
	Description     string   `json:"description"`
	DiseaseDetected string   `json:"diseaseDetected,omitempty"`
	Recommendations []string `json:"recommendations"`
	Precautions     []string `json:"precautions"`
	Severity        string   `json:"severity,omitempty"`
}

// Completion is a single provider call assembled by an adapter.
type Completion struct {
	Route  Route
	System string
	Prompt string
	Image  *upstream.Image
	// JSON asks the provider for JSON output where it supports a dedicated mode.
	JSON bool
}

// Reply is the raw outcome of one upstream call.
type Reply struct {
	Text  string
	Usage metrics.TokenUsage
}

// Provider is an upstream AI capability able to answer chat and vision prompts.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Completion) (Reply, error)
}

// TokenCounter estimates prompt tokens for input limits.
type TokenCounter interface {
	Count(text string) int
}

// LanguagePreferences resolves a user's stored language when a request omits one.
type LanguagePreferences interface {
	PreferredLanguage(ctx context.Context, userID string) (string, bool, error)
}

// Config wires runtime limits for the gateway.
type Config struct {
	Timeout           time.Duration
	MaxMessageTokens  int
	MaxImageBytes     int
	DefaultConfidence int
}
