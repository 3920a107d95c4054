package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcessingRun records one execution attempt of the pipeline for a document.
// Reprocessing creates a new run; history is preserved. Only the latest
// queued/processing run is authoritative for status polling.
type ProcessingRun struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceDocumentID primitive.ObjectID `bson:"sourceDocumentId" json:"source_document_id"`
	ProjectID        primitive.ObjectID `bson:"projectId" json:"project_id"`
	Status           string             `bson:"status" json:"status"`
	ErrorMessage     string             `bson:"errorMessage,omitempty" json:"error_message,omitempty"`
	Stalled          bool               `bson:"stalled,omitempty" json:"stalled,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"created_at"`
	StartedAt        *time.Time         `bson:"startedAt,omitempty" json:"started_at,omitempty"`
	CompletedAt      *time.Time         `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}
