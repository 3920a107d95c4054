package contentdate

import (
	"testing"
	"time"

	"briefbase/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestFilenameISODate(t *testing.T) {
	got := Infer(nil, models.FormatPlainText, "Weekly Sync 2024-01-15.txt")
	if got == nil {
		t.Fatal("Expected a date, got nil")
	}
	if !got.Equal(date(2024, time.January, 15)) {
		t.Errorf("Expected 2024-01-15, got %v", got)
	}
}

func TestFilenamePatterns(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     *time.Time
	}{
		{"compact date", "notes_20240115_final.md", ptr(date(2024, time.January, 15))},
		{"compact inside longer digit run", "invoice_202401159.txt", nil},
		{"abbreviated month name", "Board Meeting Jan 15, 2024.txt", ptr(date(2024, time.January, 15))},
		{"full month name", "Board Meeting January 15 2024.txt", ptr(date(2024, time.January, 15))},
		{"december", "Recap December 3, 2025.txt", ptr(date(2025, time.December, 3))},
		{"no date signal", "random notes.txt", nil},
		{"impossible calendar date", "report 2024-13-45.txt", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Infer(nil, models.FormatPlainText, tt.filename)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Expected no match, got %v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Expected a date, got nil")
			}
			if !got.Equal(*tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestYearBounds(t *testing.T) {
	for _, filename := range []string{"archive 1999-06-01.txt", "plan 2101-01-01.txt"} {
		if got := Infer(nil, models.FormatPlainText, filename); got != nil {
			t.Errorf("Expected year out of 2000-2100 to be rejected for %q, got %v", filename, got)
		}
	}
	if got := Infer(nil, models.FormatPlainText, "y2k 2000-01-01.txt"); got == nil {
		t.Error("Expected inclusive lower bound year 2000 to be accepted")
	}
	if got := Infer(nil, models.FormatPlainText, "centenary 2100-12-31.txt"); got == nil {
		t.Error("Expected inclusive upper bound year 2100 to be accepted")
	}
}

func TestICSDTStartWinsOverFilename(t *testing.T) {
	ics := []byte("BEGIN:VCALENDAR\nBEGIN:VEVENT\nDTSTART:20240115T100000Z\nEND:VEVENT\nEND:VCALENDAR\n")
	got := Infer(ics, models.FormatICS, "invite 2023-06-30.ics")
	if got == nil {
		t.Fatal("Expected a date, got nil")
	}
	want := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected in-content DTSTART to win: want %v, got %v", want, got)
	}
}

func TestICSDTStartWithParams(t *testing.T) {
	ics := []byte("DTSTART;TZID=America/New_York:20240115T100000\n")
	got := Infer(ics, models.FormatICS, "invite.ics")
	if got == nil {
		t.Fatal("Expected a date, got nil")
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 15 {
		t.Errorf("Expected 2024-01-15, got %v", got)
	}
}

func TestEmailDateHeader(t *testing.T) {
	eml := []byte("From: alice@example.com\r\nDate: Mon, 15 Jan 2024 10:30:00 +0000\r\nSubject: Q1 plan\r\n\r\nBody\n")
	got := Infer(eml, models.FormatEmail, "q1-plan.eml")
	if got == nil {
		t.Fatal("Expected a date, got nil")
	}
	if got.Year() != 2024 || got.Month() != time.January || got.Day() != 15 {
		t.Errorf("Expected 2024-01-15, got %v", got)
	}
}

func TestTranscriptFormatsNeverYieldContentDate(t *testing.T) {
	body := []byte("WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nDate: Mon, 15 Jan 2024 10:30:00 +0000\n")
	if got := Infer(body, models.FormatWebVTT, "meeting.vtt"); got != nil {
		t.Errorf("Expected no in-content date for VTT, got %v", got)
	}
}

func ptr(t time.Time) *time.Time { return &t }
