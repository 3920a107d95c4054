package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions recorded in the audit trail.
const (
	ActionDocumentUploaded    = "document_uploaded"
	ActionDocumentDeleted     = "document_deleted"
	ActionDocumentReprocessed = "document_reprocessed"
	ActionSummaryCompleted    = "summary_completed"
	ActionSummaryFailed       = "summary_failed"
	ActionKBCompressed        = "kb_compressed"
	ActionRunStalled          = "run_stalled"
)

// ActivityEntry is one audit-trail record. Writes are fire-and-forget;
// a failed insert never aborts the operation that produced it.
type ActivityEntry struct {
	ID               primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	ProjectID        primitive.ObjectID     `bson:"projectId" json:"project_id"`
	Action           string                 `bson:"action" json:"action"`
	SourceDocumentID *primitive.ObjectID    `bson:"sourceDocumentId,omitempty" json:"source_document_id,omitempty"`
	UserName         string                 `bson:"userName,omitempty" json:"user_name,omitempty"`
	Metadata         map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt        time.Time              `bson:"createdAt" json:"created_at"`
}
