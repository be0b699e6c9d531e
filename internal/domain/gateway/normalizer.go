package gateway

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ChatFallback replaces an empty upstream answer on the chat routes.
const ChatFallback = "Sorry, I couldn't process your question. Please try again."

// DefaultConfidence is used when an analysis omits or garbles its confidence.
// Reported values strictly between 0 and 1 are ratios and scaled by 100; every
// other value, including exactly 0 and 1, is already a percentage. A JSON number
// cannot tell 1 from 1.0, so 1 stays 1%.
const DefaultConfidence = 60

const (
	defaultPlantName      = "Unknown plant"
	defaultDescription    = "The analysis did not include a description. Please consult a local agriculture expert."
	defaultRecommendation = "Consult a local agriculture expert for an on-site inspection."
)

func normalizeChat(text string) string {
	if strings.TrimSpace(text) == "" {
		return ChatFallback
	}
	return text
}

// normalizeAnalysis never fails: when no JSON object can be recovered the raw
// text becomes the description of a conservative fallback result. The boolean
// reports whether a JSON object was found.
func normalizeAnalysis(raw string, defaultConfidence int) (AnalysisResult, bool) {
	obj, ok := extractJSONObject(raw)
	if !ok {
		return fallbackAnalysis(raw, defaultConfidence), false
	}

	result := AnalysisResult{
		PlantName:       firstNonEmpty(stringField(obj, "plantName", "plant_name", "plant"), defaultPlantName),
		Status:          normalizeStatus(stringField(obj, "status")),
		Description:     firstNonEmpty(stringField(obj, "description", "summary"), defaultDescription),
		DiseaseDetected: stringField(obj, "diseaseDetected", "disease_detected", "disease"),
		Recommendations: normalizeList(coerceStringArray(firstValue(obj, "recommendations", "recommendation"))),
		Precautions:     normalizeList(coerceStringArray(firstValue(obj, "precautions", "precaution"))),
	}
	confidence, found := parseConfidence(firstValue(obj, "confidence"))
	if !found {
		confidence = float64(defaultConfidence)
	}
	result.Confidence = clampConfidence(confidence)
	result.Severity = normalizeSeverity(stringField(obj, "severity"))
	return finalizeAnalysis(result), true
}

func fallbackAnalysis(raw string, defaultConfidence int) AnalysisResult {
	return finalizeAnalysis(AnalysisResult{
		PlantName:   defaultPlantName,
		Status:      StatusDiseased,
		Confidence:  clampConfidence(float64(defaultConfidence)),
		Description: firstNonEmpty(strings.TrimSpace(raw), defaultDescription),
	})
}

// finalizeAnalysis enforces the cross-field rules shared by parsed and fallback results.
func finalizeAnalysis(r AnalysisResult) AnalysisResult {
	if len(r.Recommendations) == 0 {
		r.Recommendations = []string{defaultRecommendation}
	}
	if len(r.Precautions) == 0 {
		r.Precautions = []string{Disclaimer}
	}
	if r.Status == StatusHealthy {
		r.Severity = ""
		r.DiseaseDetected = ""
		return r
	}
	if r.Severity == "" {
		r.Severity = SeverityMedium
	}
	return r
}

func normalizeStatus(value string) string {
	key := canonicalKey(value)
	switch key {
	case StatusHealthy, "healthy_plant", "no_disease":
		return StatusHealthy
	case StatusPest, "pests", "pest_infestation", "insect", "insects":
		return StatusPest
	case StatusNutrientDeficiency, "nutrient", "deficiency", "nutritional_deficiency":
		return StatusNutrientDeficiency
	default:
		return StatusDiseased
	}
}

func normalizeSeverity(value string) string {
	switch canonicalKey(value) {
	case SeverityLow, "mild", "minor":
		return SeverityLow
	case SeverityMedium, "moderate":
		return SeverityMedium
	case SeverityHigh, "severe", "critical":
		return SeverityHigh
	default:
		return ""
	}
}

func canonicalKey(value string) string {
	key := strings.ToLower(strings.TrimSpace(value))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	return key
}

func parseConfidence(value any) (float64, bool) {
	var parsed float64
	switch v := value.(type) {
	case float64:
		parsed = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		parsed = f
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		parsed = f
	default:
		return 0, false
	}
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	// ratios live in the open interval; see DefaultConfidence.
	if parsed > 0 && parsed < 1 {
		parsed *= 100
	}
	return parsed, true
}

func clampConfidence(value float64) int {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return int(math.Round(value))
	}
}

func firstValue(obj map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(obj map[string]any, keys ...string) string {
	switch v := firstValue(obj, keys...).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

func coerceStringArray(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch typed := item.(type) {
			case string:
				out = append(out, typed)
			case nil:
			default:
				out = append(out, fmt.Sprint(typed))
			}
		}
		return out
	default:
		return []string{fmt.Sprint(v)}
	}
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
