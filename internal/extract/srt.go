package extract

import "strings"

// SRT extracts dialogue text from a SubRip document: purely-numeric sequence
// lines and timing lines are dropped; remaining non-blank lines are kept in
// order.
func SRT(data []byte) string {
	lines := strings.Split(string(data), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isAllDigits(trimmed) {
			continue
		}
		if strings.Contains(trimmed, "-->") {
			continue
		}
		result = append(result, trimmed)
	}

	return strings.Join(result, "\n")
}
