package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Document intents. Transcript-shaped content gets the meeting-transcript
// prompt; everything else is treated as a general document.
const (
	IntentTranscript = "transcript"
	IntentDocument   = "document"
)

const intentSampleChars = 500

// IntentClassifier decides whether ambiguous plain text is a transcript or a
// general document via one short, low-token completion call.
type IntentClassifier struct {
	Client *Client
	Model  string
}

// Classify samples the first 500 characters and asks the model for a one-word
// answer. Fail-safe: any error, including a misbehaving model, resolves to
// IntentDocument rather than aborting the pipeline.
func (c *IntentClassifier) Classify(ctx context.Context, text string) string {
	sample := text
	if len(sample) > intentSampleChars {
		sample = sample[:intentSampleChars]
	}

	prompt := fmt.Sprintf(`Look at this text sample and respond with ONE word only: either "transcript" (if it appears to be a meeting transcript, interview, or conversation with speaker labels or timestamps) or "document" (if it appears to be a report, article, email, or general document).

TEXT:
%s`, sample)

	result, err := c.Client.Complete(ctx, Request{
		Model:     c.Model,
		Prompt:    prompt,
		MaxTokens: 5,
	})
	if err != nil {
		slog.Warn("intent classification failed, defaulting to document", "error", err)
		return IntentDocument
	}

	if strings.Contains(strings.ToLower(strings.TrimSpace(result.Text)), "transcript") {
		return IntentTranscript
	}
	return IntentDocument
}
