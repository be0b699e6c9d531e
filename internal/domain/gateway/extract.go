package gateway

import "encoding/json"

// maxScanWork bounds the bytes examined across all candidates, so prose full of
// braces is still searched to the end while pathological input stays linear.
const maxScanWork = 1 << 22

// extractJSONObject returns the first balanced {...} substring of text that
// decodes into a JSON object. Balanced candidates that fail to decode (prose
// such as "use {this} amount") are skipped. Braces inside JSON strings do not
// count towards balance.
func extractJSONObject(text string) (map[string]any, bool) {
	work := 0
	for start := 0; start < len(text) && work < maxScanWork; start++ {
		if text[start] != '{' {
			continue
		}
		end := balancedEnd(text, start)
		if end < 0 {
			work += len(text) - start
			continue
		}
		work += 2 * (end + 1 - start)
		var obj map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err == nil && obj != nil {
			return obj, true
		}
	}
	return nil, false
}

// balancedEnd returns the index of the brace closing the one at start, or -1.
func balancedEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
