package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LLMUsage is one completion-call accounting record.
type LLMUsage struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProjectID        primitive.ObjectID  `bson:"projectId" json:"project_id"`
	SourceDocumentID *primitive.ObjectID `bson:"sourceDocumentId,omitempty" json:"source_document_id,omitempty"`
	Model            string              `bson:"model" json:"model"`
	InputTokens      int                 `bson:"inputTokens" json:"input_tokens"`
	OutputTokens     int                 `bson:"outputTokens" json:"output_tokens"`
	TotalTokens      int                 `bson:"totalTokens" json:"total_tokens"`
	DurationMS       int64               `bson:"durationMs" json:"duration_ms"`
	CreatedAt        time.Time           `bson:"createdAt" json:"created_at"`
}
