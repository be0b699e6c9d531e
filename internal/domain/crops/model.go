package crops

// Summary identifies a crop in listings.
type Summary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PestControl lists pests and their treatments for one crop.
type PestControl struct {
	CommonPests        []string `json:"commonPests" yaml:"commonPests"`
	OrganicSolutions   []string `json:"organicSolutions" yaml:"organicSolutions"`
	ChemicalSolutions  []string `json:"chemicalSolutions" yaml:"chemicalSolutions"`
	PreventiveMeasures []string `json:"preventiveMeasures" yaml:"preventiveMeasures"`
}

// Fertilizer describes nutrient management for one crop.
type Fertilizer struct {
	PrimaryFertilizers []string `json:"primaryFertilizers" yaml:"primaryFertilizers"`
	OrganicOptions     []string `json:"organicOptions" yaml:"organicOptions"`
	ApplicationTiming  []string `json:"applicationTiming" yaml:"applicationTiming"`
	Dosage             string   `json:"dosage" yaml:"dosage"`
}

// Recommendation is the full pest and fertilizer sheet for a crop.
type Recommendation struct {
	Crop        Summary     `json:"crop"`
	PestControl PestControl `json:"pestControl"`
	Fertilizer  Fertilizer  `json:"fertilizer"`
}

// Config selects an optional catalog file overriding the embedded one.
type Config struct {
	CatalogPath string
}
