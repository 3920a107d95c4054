package contentdate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"briefbase/internal/models"
)

// Parsed dates outside this window are treated as no match. Guards against
// false positives from arbitrary digit runs in filenames.
const (
	minYear = 2000
	maxYear = 2100
)

const (
	emailHeaderScanBytes = 4096
	icsScanBytes         = 8192
)

var (
	emailDateRe = regexp.MustCompile(`(?im)^Date:\s*(.+)$`)
	// DTSTART:20240115T100000Z and DTSTART;TZID=...:20240115T100000
	icsDTStartRe = regexp.MustCompile(`(?im)^DTSTART(?:;[^:\r\n]*)?:(\d{8}T\d{6}Z?)`)

	isoDateRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	// YYYYMMDD, exactly 8 digits not adjacent to other digits. Go regexp has
	// no lookarounds, so the neighbours are captured and checked instead.
	compactDateRe = regexp.MustCompile(`(^|[^0-9])(\d{8})($|[^0-9])`)
	monthNameRe   = regexp.MustCompile(`(?i)(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+(\d{1,2})[,\s]+(\d{4})`)
)

// Infer derives the semantic creation date of a document. Format-specific
// in-content headers win over filename patterns; nil means nothing matched and
// the caller should fall back to the upload time. Inference never runs for
// documents whose content-date source is already manual; that check belongs to
// the caller, which also owns the fallback write.
func Infer(data []byte, fileType, filename string) *time.Time {
	if d := fromContent(data, fileType); d != nil {
		return d
	}
	if d := fromFilename(filename); d != nil {
		return d
	}
	return nil
}

func fromContent(data []byte, fileType string) *time.Time {
	switch fileType {
	case models.FormatEmail:
		return fromEmailHeaders(data)
	case models.FormatICS:
		return fromICS(data)
	default:
		// VTT/SRT cue text carries no reliable creation date; recording apps
		// put it in the filename instead.
		return nil
	}
}

// fromEmailHeaders parses the first Date: header of a raw email block.
func fromEmailHeaders(data []byte) *time.Time {
	if len(data) > emailHeaderScanBytes {
		data = data[:emailHeaderScanBytes]
	}
	match := emailDateRe.FindSubmatch(data)
	if match == nil {
		return nil
	}
	parsed, err := mail.ParseDate(strings.TrimSpace(string(match[1])))
	if err != nil {
		return nil
	}
	return validated(parsed)
}

// fromICS parses the DTSTART property of a calendar invite.
func fromICS(data []byte) *time.Time {
	if len(data) > icsScanBytes {
		data = data[:icsScanBytes]
	}
	match := icsDTStartRe.FindSubmatch(data)
	if match == nil {
		return nil
	}
	raw := string(match[1])
	layout := "20060102T150405"
	if strings.HasSuffix(raw, "Z") {
		layout = "20060102T150405Z"
	}
	parsed, err := time.Parse(layout, raw)
	if err != nil {
		return nil
	}
	return validated(parsed)
}

// fromFilename tries the filename patterns in order: ISO YYYY-MM-DD, compact
// YYYYMMDD, then an English month name with day and 4-digit year.
func fromFilename(filename string) *time.Time {
	base := stripExtension(filename)

	if m := isoDateRe.FindStringSubmatch(base); m != nil {
		if d := parseNoonUTC(m[1], m[2], m[3]); d != nil {
			return d
		}
	}

	if m := compactDateRe.FindStringSubmatch(base); m != nil {
		digits := m[2]
		if d := parseNoonUTC(digits[0:4], digits[4:6], digits[6:8]); d != nil {
			return d
		}
	}

	if m := monthNameRe.FindStringSubmatch(base); m != nil {
		candidate := fmt.Sprintf("%s %s %s", m[1], m[2], m[3])
		for _, layout := range []string{"Jan 2 2006", "January 2 2006"} {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				noon := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 12, 0, 0, 0, time.UTC)
				return validated(noon)
			}
		}
	}

	return nil
}

func stripExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return filename[:idx]
	}
	return filename
}

// parseNoonUTC builds a date pinned to 12:00 UTC so timezone display never
// shifts it across a day boundary. Returns nil for impossible dates.
func parseNoonUTC(year, month, day string) *time.Time {
	parsed, err := time.Parse(time.RFC3339, fmt.Sprintf("%s-%s-%sT12:00:00Z", year, month, day))
	if err != nil {
		return nil
	}
	return validated(parsed)
}

func validated(d time.Time) *time.Time {
	if d.Year() < minYear || d.Year() > maxYear {
		return nil
	}
	return &d
}
