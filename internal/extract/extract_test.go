package extract

import (
	"errors"
	"strings"
	"testing"

	"briefbase/internal/models"
)

func TestVTTStripping(t *testing.T) {
	input := `WEBVTT

NOTE This file was generated by a recording tool

1
00:00:00.000 --> 00:00:04.000
Alice: Welcome everyone to the weekly sync.

2
00:00:04.500 --> 00:00:09.000
Bob: Thanks, glad to be here.

3
00:00:09.500 --> 00:00:14.000
Carol: Let's get started with the roadmap.
`

	got := VTT([]byte(input))

	for _, want := range []string{
		"Alice: Welcome everyone to the weekly sync.",
		"Bob: Thanks, glad to be here.",
		"Carol: Let's get started with the roadmap.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}

	for _, banned := range []string{"WEBVTT", "-->", "00:00:00", "NOTE"} {
		if strings.Contains(got, banned) {
			t.Errorf("Expected output to exclude %q, got:\n%s", banned, got)
		}
	}
}

func TestSRTStripping(t *testing.T) {
	input := `1
00:00:00,000 --> 00:00:04,000
Alice: First point.

2
00:00:04,500 --> 00:00:09,000
Bob: Second point.

3
00:00:09,500 --> 00:00:14,000
Carol: Third point.
`

	got := SRT([]byte(input))

	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 dialogue lines, got %d:\n%s", len(lines), got)
	}

	for _, banned := range []string{"-->", "00:00:00"} {
		if strings.Contains(got, banned) {
			t.Errorf("Expected output to exclude %q, got:\n%s", banned, got)
		}
	}
	for _, line := range lines {
		if isAllDigits(line) {
			t.Errorf("Sequence number leaked into output: %q", line)
		}
	}
}

func TestVTTKeepsSpeakerLabels(t *testing.T) {
	input := "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\n<v Alice>Hello there\n"
	got := VTT([]byte(input))
	if !strings.Contains(got, "Alice") {
		t.Errorf("Expected speaker label to survive, got %q", got)
	}
}

func TestTextPlainPassthrough(t *testing.T) {
	tests := []struct {
		name     string
		fileType string
	}{
		{"plain text", models.FormatPlainText},
		{"markdown", models.FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "# Heading\n\nSome **content** here.\n"
			got, err := Text([]byte(input), tt.fileType)
			if err != nil {
				t.Fatalf("Text returned error: %v", err)
			}
			if got != input {
				t.Errorf("Expected verbatim passthrough, got %q", got)
			}
		})
	}
}

func TestTextInvalidUTF8(t *testing.T) {
	if _, err := Text([]byte{0xff, 0xfe, 0xfd}, models.FormatPlainText); err == nil {
		t.Error("Expected error for undecodable bytes")
	}
}

func TestTextUnsupportedFormat(t *testing.T) {
	for _, tag := range []string{"docx", "xlsx", models.FormatEmail, models.FormatICS, ""} {
		if _, err := Text([]byte("data"), tag); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Expected ErrUnsupportedFormat for tag %q, got %v", tag, err)
		}
	}
}

func TestPDFCorruptInput(t *testing.T) {
	if _, err := PDF([]byte("definitely not a pdf")); err == nil {
		t.Error("Expected error for corrupt PDF input")
	}
}
