package core

import "unicode/utf8"

// EstimateTokens returns a crude size estimate for text: one token per four
// characters, minimum one. Characters are Unicode code points, not bytes, so
// multibyte text is not over-counted. Every size policy in the module (prompt
// and task budgets, result truncation, context store quotas) uses this
// estimate, so limits stay comparable across components.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		return 1
	}
	return n
}
