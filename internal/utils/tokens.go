package utils

// runesPerToken is the usual rule of thumb for English text and CSV digests.
const runesPerToken = 4

// CountTokens estimates how many tokens text costs a chat model.
func CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	if n < runesPerToken {
		return 1
	}
	return n / runesPerToken
}

// PromptTokens estimates the input side of a request: every message plus a
// small per-message framing overhead.
func PromptTokens(messages ...string) int {
	total := 0
	for _, m := range messages {
		total += CountTokens(m) + 4
	}
	return total
}
