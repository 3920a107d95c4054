package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Processing statuses shared by summaries and processing runs.
// Transitions are forward-only (queued → processing → complete|failed) except
// for explicit reprocessing, which resets a terminal summary back to queued.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Summary is the generated markdown artifact for a source document (1:1).
type Summary struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	SourceDocumentID primitive.ObjectID  `bson:"sourceDocumentId" json:"source_document_id"`
	ProjectID        primitive.ObjectID  `bson:"projectId" json:"project_id"`
	ProcessingStatus string              `bson:"processingStatus" json:"processing_status"`
	Content          string              `bson:"content,omitempty" json:"content,omitempty"`
	BlobURL          string              `bson:"blobUrl,omitempty" json:"-"`
	GeneratedAt      *time.Time          `bson:"generatedAt,omitempty" json:"generated_at,omitempty"`
	LLMModel         string              `bson:"llmModel,omitempty" json:"llm_model,omitempty"`
	TokenCount       int                 `bson:"tokenCount,omitempty" json:"token_count,omitempty"`
	Truncated        bool                `bson:"truncated" json:"truncated"`
	ErrorMessage     string              `bson:"errorMessage,omitempty" json:"error_message,omitempty"`
	PromptTemplateID *primitive.ObjectID `bson:"promptTemplateId,omitempty" json:"prompt_template_id,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updated_at"`
}

// SummaryResponse is the API shape for a summary.
type SummaryResponse struct {
	ID               string     `json:"id"`
	SourceDocumentID string     `json:"source_document_id"`
	ProcessingStatus string     `json:"processing_status"`
	Content          string     `json:"content,omitempty"`
	GeneratedAt      *time.Time `json:"generated_at,omitempty"`
	LLMModel         string     `json:"llm_model,omitempty"`
	TokenCount       int        `json:"token_count,omitempty"`
	Truncated        bool       `json:"truncated"`
	ErrorMessage     string     `json:"error_message,omitempty"`
}

// ToResponse converts a Summary to its API shape.
func (s *Summary) ToResponse() SummaryResponse {
	return SummaryResponse{
		ID:               s.ID.Hex(),
		SourceDocumentID: s.SourceDocumentID.Hex(),
		ProcessingStatus: s.ProcessingStatus,
		Content:          s.Content,
		GeneratedAt:      s.GeneratedAt,
		LLMModel:         s.LLMModel,
		TokenCount:       s.TokenCount,
		Truncated:        s.Truncated,
		ErrorMessage:     s.ErrorMessage,
	}
}
