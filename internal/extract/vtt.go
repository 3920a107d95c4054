package extract

import "strings"

// VTT extracts dialogue text from a WebVTT document: the WEBVTT header, NOTE
// blocks, numeric cue identifiers, and timing lines are dropped; every other
// non-blank line (speaker labels included) is kept in original order.
func VTT(data []byte) string {
	lines := strings.Split(string(data), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "WEBVTT" || strings.HasPrefix(trimmed, "WEBVTT ") || strings.HasPrefix(trimmed, "NOTE") {
			continue
		}
		// 00:00:00.000 --> 00:00:05.000
		if strings.Contains(trimmed, "-->") {
			continue
		}
		if isAllDigits(trimmed) {
			continue
		}
		result = append(result, trimmed)
	}

	return strings.Join(result, "\n")
}
