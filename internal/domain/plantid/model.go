package plantid

import (
	"context"
	"time"

	"github.com/yanqian/kisanmitra/internal/domain/upstream"
)

// Identification statuses.
const (
	StatusIdentified   = "identified"
	StatusUnclearImage = "unclear_image"
	StatusNoResults    = "no_results"
)

// Request is the payload accepted by the identification endpoint.
type Request struct {
	ImageBase64 string `json:"imageBase64"`
	Organ       string `json:"organ"`
	Language    string `json:"language"`
	// Message is the farmer's own question about the photo.
	Message     string `json:"message"`
}

// SpeciesMatch is one candidate species returned by the identification API.
type SpeciesMatch struct {
	Score          float64
	ScientificName string
	CommonNames    []string
	Family         string
}

// DiseaseMatch is one candidate disease returned by the identification API.
type DiseaseMatch struct {
	Score float64
	Name  string
}

// Disease is the reported disease with its confidence in percent.
type Disease struct {
	Name       string `json:"name"`
	Confidence int    `json:"confidence"`
}

// Result summarises the identification for the client.
type Result struct {
	Status      string   `json:"status"`
	PlantName   string   `json:"plantName,omitempty"`
	Scientific  string   `json:"scientificName,omitempty"`
	CommonNames []string `json:"commonNames,omitempty"`
	Family      string   `json:"family,omitempty"`
	Confidence  int      `json:"confidence"`
	Disease     *Disease `json:"disease,omitempty"`
	DiseaseNote string   `json:"diseaseNote,omitempty"`
	Message     string   `json:"message"`
	// Advice is the localized guidance generated from Message, empty unless identified.
	Advice      string   `json:"advice,omitempty"`
}

// Client calls the plant identification API.
type Client interface {
	IdentifySpecies(ctx context.Context, img upstream.Image, organ string) ([]SpeciesMatch, error)
	IdentifyDiseases(ctx context.Context, img upstream.Image, organ string) ([]DiseaseMatch, error)
}

// Config controls thresholds and limits for identification.
type Config struct {
	MinConfidence int
	DefaultOrgan  string
	MaxImageBytes int
	Timeout       time.Duration
	// AdviceTimeout bounds the follow-up language model call.
	AdviceTimeout time.Duration
}
