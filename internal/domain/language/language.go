package language

import "strings"

// DefaultValue is used whenever a requested language is missing or unknown.
const DefaultValue = "english"

// Language is one entry of the supported locale catalog.
type Language struct {
	Value string `json:"value"`
	Code  string `json:"code"`
	Label string `json:"label"`
	// Name is the display name injected into upstream prompts.
	Name string `json:"-"`
}

var catalog = [...]Language{
	{Value: "english", Code: "en", Label: "English", Name: "English"},
	{Value: "hindi", Code: "hi", Label: "हिन्दी (Hindi)", Name: "Hindi"},
	{Value: "tamil", Code: "ta", Label: "தமிழ் (Tamil)", Name: "Tamil"},
	{Value: "telugu", Code: "te", Label: "తెలుగు (Telugu)", Name: "Telugu"},
	{Value: "kannada", Code: "kn", Label: "ಕನ್ನಡ (Kannada)", Name: "Kannada"},
	{Value: "bengali", Code: "bn", Label: "বাংলা (Bengali)", Name: "Bengali"},
	{Value: "marathi", Code: "mr", Label: "मराठी (Marathi)", Name: "Marathi"},
	{Value: "gujarati", Code: "gu", Label: "ગુજરાતી (Gujarati)", Name: "Gujarati"},
	{Value: "malayalam", Code: "ml", Label: "മലയാളം (Malayalam)", Name: "Malayalam"},
	{Value: "punjabi", Code: "pa", Label: "ਪੰਜਾਬੀ (Punjabi)", Name: "Punjabi"},
	{Value: "odia", Code: "or", Label: "ଓଡ଼ିଆ (Odia)", Name: "Odia"},
}

var index = func() map[string]int {
	idx := make(map[string]int, len(catalog)*2)
	for i, lang := range catalog {
		idx[lang.Value] = i
		idx[lang.Code] = i
	}
	return idx
}()

// All returns a copy of the catalog in display order.
func All() []Language {
	out := make([]Language, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup finds a language by value or code, case-insensitively.
func Lookup(value string) (Language, bool) {
	i, ok := index[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return Language{}, false
	}
	return catalog[i], true
}

// Resolve is Lookup with fallback to English.
func Resolve(value string) Language {
	if lang, ok := Lookup(value); ok {
		return lang
	}
	return catalog[0]
}
