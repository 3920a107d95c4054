package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDF runs a text-layer extraction over all pages and returns the
// concatenated page text. A corrupt or encrypted file, or one with no
// extractable text layer, is an extraction error and fatal for the run.
func PDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPages := reader.NumPage()
	if totalPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var textBuilder strings.Builder
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages with extraction errors rather than failing the file
			continue
		}

		cleaned := cleanText(text)
		if cleaned != "" {
			textBuilder.WriteString(cleaned)
			textBuilder.WriteString("\n")
		}
	}

	extracted := textBuilder.String()
	if strings.TrimSpace(extracted) == "" {
		return "", fmt.Errorf("PDF has no extractable text layer")
	}

	return extracted, nil
}
