package prompts

import (
	"fmt"
	"strings"

	"briefbase/internal/models"
)

// Build interpolates a summarization template. Tokens are replaced in a fixed
// order with extractedText last, so document content that happens to contain
// {{filename}} or {{people}} is never re-expanded.
func Build(templateContent, filename, fileType, extractedText, peopleBlock string) string {
	out := strings.ReplaceAll(templateContent, "{{filename}}", filename)
	out = strings.ReplaceAll(out, "{{fileType}}", fileType)
	out = strings.ReplaceAll(out, "{{people}}", peopleBlock)
	out = strings.ReplaceAll(out, "{{extractedText}}", extractedText)
	return out
}

// FormatRoster renders the project people block injected at {{people}},
// wrapped in newlines so it separates cleanly from the surrounding template.
// Returns "" for an empty roster so the template collapses cleanly.
func FormatRoster(roster []models.RosterEntry) string {
	if len(roster) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nPROJECT PEOPLE:\n")
	for _, p := range roster {
		b.WriteString("- ")
		b.WriteString(p.Name)
		if p.Email != "" {
			fmt.Fprintf(&b, " <%s>", p.Email)
		}
		if p.Role != "" {
			fmt.Fprintf(&b, " (%s)", p.Role)
		}
		if p.Organization != "" {
			fmt.Fprintf(&b, " — %s", p.Organization)
		}
		b.WriteString("\n")
	}
	return b.String()
}
