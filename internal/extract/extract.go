package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"briefbase/internal/models"
)

// ErrUnsupportedFormat signals a document tagged with a format no extractor
// recognizes. It is fatal for the run and indicates an ingest bug; the
// pipeline must not attempt any further stage.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Text converts raw document bytes into plain text according to the format tag.
func Text(data []byte, fileType string) (string, error) {
	switch fileType {
	case models.FormatPlainText, models.FormatMarkdown:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s content is not valid UTF-8", fileType)
		}
		return string(data), nil
	case models.FormatWebVTT:
		return VTT(data), nil
	case models.FormatSRT:
		return SRT(data), nil
	case models.FormatPDF:
		return PDF(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

// isAllDigits reports whether s is non-empty and consists only of ASCII digits
// (cue identifiers in VTT, sequence numbers in SRT).
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// cleanText strips null bytes and collapses horizontal whitespace while
// preserving line structure.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")

	var result strings.Builder
	lastWasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if r == '\n' {
				result.WriteRune('\n')
				lastWasSpace = false
			} else if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}
