package decision

import "strings"

const (
	minTokens      = 3
	diversityFloor = 0.1
	strippedChars  = ".,-_\\/\n"
)

// TextAnalysis is the outcome of the repetition heuristic for one message.
type TextAnalysis struct {
	Tokens     int
	Distinct   int
	Diversity  float64
	Threshold  float64
	Repetitive bool
}

// AnalyzeText scores how repetitive a message is. Diversity is the share of
// distinct tokens; the message is repetitive when diversity falls below
// max(2/tokens, 0.1). Messages with fewer than three tokens are never flagged.
func AnalyzeText(text string) TextAnalysis {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippedChars, r) {
			return -1
		}
		return r
	}, text)

	tokens := strings.Fields(cleaned)
	result := TextAnalysis{Tokens: len(tokens)}
	if len(tokens) < minTokens {
		return result
	}

	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}

	result.Distinct = len(seen)
	result.Diversity = float64(result.Distinct) / float64(result.Tokens)
	result.Threshold = max(1/(float64(result.Tokens)/2), diversityFloor)
	result.Repetitive = result.Diversity < result.Threshold
	return result
}

func IsRepetitive(text string) bool {
	return AnalyzeText(text).Repetitive
}
