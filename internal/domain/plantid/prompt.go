package plantid

import (
	"strings"

	"github.com/yanqian/kisanmitra/internal/domain/gateway"
	"github.com/yanqian/kisanmitra/internal/domain/language"
)

const defaultAdviceQuestion = "Please analyze the plant image results."

// advicePrompt grounds the farmer-facing answer in the identification summary only.
func advicePrompt(lang language.Language, summary string) string {
	var b strings.Builder
	b.WriteString("You are KisanMitra, an AI farming assistant for Indian farmers. Respond in ")
	b.WriteString(lang.Name)
	b.WriteString(" language.\n\nBased ONLY on the following Pl@ntNet analysis results, provide a farmer-friendly response:\n\n")
	b.WriteString(summary)
	b.WriteString("\n\nYour response must include:\n")
	b.WriteString("1. Plant name and disease name (if detected)\n")
	b.WriteString("2. Disease cause (if disease detected)\n")
	b.WriteString("3. Basic prevention steps\n")
	b.WriteString("4. Safe treatment advice (both organic and chemical if relevant)\n")
	b.WriteString(`5. Add this warning: "` + gateway.Disclaimer + `"`)
	b.WriteString("\n\nIf no disease is detected, say: \"")
	b.WriteString(noDiseaseNote)
	b.WriteString("\" and give general care tips for the identified plant.\n\n")
	b.WriteString("Be respectful and encouraging. Keep it practical for farmers.")
	return b.String()
}

func adviceQuestion(message string) string {
	if trimmed := strings.TrimSpace(message); trimmed != "" {
		return trimmed
	}
	return defaultAdviceQuestion
}
