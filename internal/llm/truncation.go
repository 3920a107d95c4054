package llm

import "math"

// MaxPromptChars is the fixed input ceiling: ~180K tokens at 4 chars/token.
const MaxPromptChars = 720_000

// TruncationResult reports what survived truncation.
type TruncationResult struct {
	Text           string
	Truncated      bool
	PercentCovered int
}

// Truncate enforces the input-size ceiling. Inputs at or under the ceiling
// pass through unchanged; longer inputs are cut to exactly MaxPromptChars
// with the covered share rounded to a whole percent. Deterministic: identical
// input always yields identical output.
func Truncate(text string) TruncationResult {
	if len(text) <= MaxPromptChars {
		return TruncationResult{Text: text, Truncated: false, PercentCovered: 100}
	}

	percent := int(math.Round(float64(MaxPromptChars) / float64(len(text)) * 100))
	return TruncationResult{
		Text:           text[:MaxPromptChars],
		Truncated:      true,
		PercentCovered: percent,
	}
}
