package crops

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/yanqian/kisanmitra/pkg/errors"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Service answers read-only crop recommendation lookups.
type Service interface {
	List(ctx context.Context) []Summary
	Recommend(ctx context.Context, cropID string) (Recommendation, error)
}

type catalogEntry struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	PestControl PestControl `yaml:"pestControl"`
	Fertilizer  Fertilizer  `yaml:"fertilizer"`
}

type catalogDocument struct {
	Crops []catalogEntry `yaml:"crops"`
}

type service struct {
	order   []string
	entries map[string]catalogEntry
}

// NewService loads the catalog once. The embedded table is used unless
// cfg.CatalogPath points at a replacement document.
func NewService(cfg Config, logger *slog.Logger) (Service, error) {
	data := embeddedCatalog
	source := "embedded"
	if path := strings.TrimSpace(cfg.CatalogPath); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read crop catalog: %w", err)
		}
		data = raw
		source = path
	}
	svc, err := parseCatalog(data)
	if err != nil {
		return nil, err
	}
	logger.With("component", "crops.service").Info("crop catalog loaded", "source", source, "crops", len(svc.order))
	return svc, nil
}

func parseCatalog(data []byte) (*service, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse crop catalog: %w", err)
	}
	if len(doc.Crops) == 0 {
		return nil, errors.New("crop catalog is empty")
	}
	svc := &service{entries: make(map[string]catalogEntry, len(doc.Crops))}
	for _, entry := range doc.Crops {
		id := normalizeID(entry.ID)
		if id == "" {
			return nil, errors.New("crop catalog entry without id")
		}
		if _, dup := svc.entries[id]; dup {
			return nil, fmt.Errorf("duplicate crop %q in catalog", id)
		}
		entry.ID = id
		if strings.TrimSpace(entry.Name) == "" {
			entry.Name = id
		}
		svc.entries[id] = entry
		svc.order = append(svc.order, id)
	}
	return svc, nil
}

func (s *service) List(_ context.Context) []Summary {
	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Summary{ID: id, Name: s.entries[id].Name})
	}
	return out
}

func (s *service) Recommend(_ context.Context, cropID string) (Recommendation, error) {
	entry, ok := s.entries[normalizeID(cropID)]
	if !ok {
		return Recommendation{}, apperrors.Wrap("not_found", "No recommendations available for this crop.", nil)
	}
	return Recommendation{
		Crop: Summary{ID: entry.ID, Name: entry.Name},
		PestControl: PestControl{
			CommonPests:        cloneStrings(entry.PestControl.CommonPests),
			OrganicSolutions:   cloneStrings(entry.PestControl.OrganicSolutions),
			ChemicalSolutions:  cloneStrings(entry.PestControl.ChemicalSolutions),
			PreventiveMeasures: cloneStrings(entry.PestControl.PreventiveMeasures),
		},
		Fertilizer: Fertilizer{
			PrimaryFertilizers: cloneStrings(entry.Fertilizer.PrimaryFertilizers),
			OrganicOptions:     cloneStrings(entry.Fertilizer.OrganicOptions),
			ApplicationTiming:  cloneStrings(entry.Fertilizer.ApplicationTiming),
			Dosage:             entry.Fertilizer.Dosage,
		},
	}, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
