package llm

import (
	"strings"
	"testing"
)

func TestTruncateUnderCeiling(t *testing.T) {
	input := "short document text"
	got := Truncate(input)

	if got.Text != input {
		t.Error("Expected identity for input under the ceiling")
	}
	if got.Truncated {
		t.Error("Expected truncated=false")
	}
	if got.PercentCovered != 100 {
		t.Errorf("Expected percentCovered=100, got %d", got.PercentCovered)
	}
}

func TestTruncateExactlyAtCeiling(t *testing.T) {
	input := strings.Repeat("a", MaxPromptChars)
	got := Truncate(input)

	if got.Truncated {
		t.Error("Expected the ceiling to be inclusive")
	}
	if len(got.Text) != MaxPromptChars {
		t.Errorf("Expected length %d, got %d", MaxPromptChars, len(got.Text))
	}
	if got.PercentCovered != 100 {
		t.Errorf("Expected percentCovered=100, got %d", got.PercentCovered)
	}
}

func TestTruncateOverCeiling(t *testing.T) {
	input := strings.Repeat("a", 800_000)
	got := Truncate(input)

	if !got.Truncated {
		t.Error("Expected truncated=true")
	}
	if len(got.Text) != MaxPromptChars {
		t.Errorf("Expected length %d, got %d", MaxPromptChars, len(got.Text))
	}
	if got.PercentCovered != 90 {
		t.Errorf("Expected percentCovered=90, got %d", got.PercentCovered)
	}
}

func TestTruncateDeterministic(t *testing.T) {
	input := strings.Repeat("abc", 300_000)
	first := Truncate(input)
	second := Truncate(input)

	if first.Text != second.Text || first.PercentCovered != second.PercentCovered {
		t.Error("Expected identical results for identical input")
	}
}
