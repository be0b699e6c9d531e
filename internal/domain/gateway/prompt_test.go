package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/kisanmitra/internal/domain/language"
)

func TestPromptsNameLanguageExactlyOnce(t *testing.T) {
	builders := map[string]func(language.Language) string{
		"text":     textChatPrompt,
		"vision":   visionChatPrompt,
		"analysis": analysisPrompt,
	}
	for _, lang := range language.All() {
		for name, build := range builders {
			prompt := build(lang)
			require.Equal(t, 1, strings.Count(prompt, lang.Name), "%s prompt for %s", name, lang.Value)
		}
	}
}

func TestUnknownLanguagePromptUsesEnglish(t *testing.T) {
	prompt := textChatPrompt(language.Resolve("klingon"))
	require.Contains(t, prompt, "Respond in English language.")
}

func TestPromptContents(t *testing.T) {
	lang := language.Resolve("hindi")

	text := textChatPrompt(lang)
	require.Contains(t, text, "KisanMitra")
	require.Contains(t, text, "Indian agriculture")
	require.NotContains(t, text, Disclaimer)

	vision := visionChatPrompt(lang)
	require.True(t, strings.HasPrefix(vision, text))
	require.Contains(t, vision, Disclaimer)

	analysis := analysisPrompt(lang)
	require.Contains(t, analysis, "single JSON object")
	require.Contains(t, analysis, "markdown code fences")
	for _, value := range []string{StatusHealthy, StatusDiseased, StatusPest, StatusNutrientDeficiency, SeverityLow, SeverityMedium, SeverityHigh} {
		require.Contains(t, analysis, `"`+value+`"`)
	}
	require.Contains(t, analysis, Disclaimer)
}
