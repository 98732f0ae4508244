package utils

// CountTokens estimates the number of tokens in the given text.
// Gemini tokenizes at roughly 4 characters per token for Latin text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateRunes cuts text to at most limit runes. The boolean reports whether
// anything was removed.
func TruncateRunes(text string, limit int) (string, bool) {
	if limit <= 0 {
		return "", text != ""
	}
	// fast path: byte length bounds rune length
	if len(text) <= limit {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text, false
	}
	return string(runes[:limit]), true
}

// TokenBreakdown returns a breakdown of labeled sections to token counts.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
