package gateway

import (
	"strings"

	"github.com/yanqian/kisanmitra/internal/domain/language"
)

// Disclaimer is appended whenever a disease or pest treatment is suggested.
const Disclaimer = "Consult a local agriculture officer before heavy chemical use."

const (
	persona = "You are KisanMitra, an AI farming assistant specializing in Indian agriculture."

	chatGuidance = "Provide helpful, practical advice about farming, crops, weather, pest control, fertilizers, and agricultural practices. Keep responses concise and farmer-friendly."

	visionGuidance = "The farmer has attached a photo of a plant or crop. Examine it carefully, identify the plant, describe the visible symptoms and name the most likely disease, pest or nutrient problem. Explain the cause, prevention steps, and both organic and chemical treatment options."

	defaultVisionQuestion   = "Please analyze this plant image."
	defaultAnalysisQuestion = "Analyze this plant image for diseases, pests and nutrient deficiencies."
)

func textChatPrompt(lang language.Language) string {
	return persona + " Respond in " + lang.Name + " language. " + chatGuidance
}

func visionChatPrompt(lang language.Language) string {
	var b strings.Builder
	b.WriteString(textChatPrompt(lang))
	b.WriteString(" ")
	b.WriteString(visionGuidance)
	b.WriteString(` If a disease is detected, always end your answer with this exact sentence: "`)
	b.WriteString(Disclaimer)
	b.WriteString(`"`)
	return b.String()
}

func analysisPrompt(lang language.Language) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(" Act as an expert plant pathologist and examine the attached plant image.")
	b.WriteString(" Reply with a single JSON object and nothing else. Do not wrap the JSON in markdown code fences.")
	b.WriteString(` Use exactly these keys: "plantName" (string), "status" (one of "healthy", "diseased", "pest", "nutrient_deficiency"),`)
	b.WriteString(` "confidence" (integer from 0 to 100), "description" (string), "diseaseDetected" (string, omit when healthy),`)
	b.WriteString(` "recommendations" (array of strings), "precautions" (array of strings), "severity" (one of "low", "medium", "high", omit when healthy).`)
	b.WriteString(" Write the text values in ")
	b.WriteString(lang.Name)
	b.WriteString(" language but keep keys and enumerated values exactly as listed.")
	b.WriteString(` When the plant is not healthy, add "`)
	b.WriteString(Disclaimer)
	b.WriteString(`" as the last precaution.`)
	return b.String()
}

func questionOrDefault(message, fallback string) string {
	if trimmed := strings.TrimSpace(message); trimmed != "" {
		return trimmed
	}
	return fallback
}
