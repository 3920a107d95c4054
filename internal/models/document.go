package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Supported source document formats. Documents are only ever stored with one
// of the five storable formats; email and ics exist purely as inputs to
// content-date inference during ingest.
const (
	FormatPlainText = "txt"
	FormatMarkdown  = "md"
	FormatWebVTT    = "vtt"
	FormatSRT       = "srt"
	FormatPDF       = "pdf"

	// Ingestion-only synthetic formats (content-date inference inputs)
	FormatEmail = "email"
	FormatICS   = "ics"
)

// MaxDocumentBytes is the upload ceiling for a single source document (50 MiB).
const MaxDocumentBytes = 50 * 1024 * 1024

// Content-date provenance values
const (
	DateSourceExtracted = "extracted" // parsed from content or filename
	DateSourceManual    = "manual"    // explicit user override, never auto-overwritten
	DateSourceUploaded  = "uploaded"  // fallback to upload time
)

// IsStorableFormat reports whether tag is one of the five formats a
// SourceDocument may carry.
func IsStorableFormat(tag string) bool {
	switch tag {
	case FormatPlainText, FormatMarkdown, FormatWebVTT, FormatSRT, FormatPDF:
		return true
	}
	return false
}

// SourceDocument is one uploaded or ingested artifact belonging to a project.
type SourceDocument struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID         primitive.ObjectID `bson:"projectId" json:"project_id"`
	Filename          string             `bson:"filename" json:"filename"`
	FileType          string             `bson:"fileType" json:"file_type"`
	SizeBytes         int64              `bson:"sizeBytes" json:"size_bytes"`
	BlobURL           string             `bson:"blobUrl" json:"-"`
	UploadedBy        string             `bson:"uploadedBy,omitempty" json:"uploaded_by,omitempty"`
	UploadedAt        time.Time          `bson:"uploadedAt" json:"uploaded_at"`
	ContentDate       *time.Time         `bson:"contentDate,omitempty" json:"content_date,omitempty"`
	ContentDateSource string             `bson:"contentDateSource,omitempty" json:"content_date_source,omitempty"`
}

// DocumentResponse is the API shape for a source document.
type DocumentResponse struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"project_id"`
	Filename          string     `json:"filename"`
	FileType          string     `json:"file_type"`
	SizeBytes         int64      `json:"size_bytes"`
	UploadedAt        time.Time  `json:"uploaded_at"`
	ContentDate       *time.Time `json:"content_date,omitempty"`
	ContentDateSource string     `json:"content_date_source,omitempty"`
}

// ToResponse converts a SourceDocument to its API shape.
func (d *SourceDocument) ToResponse() DocumentResponse {
	return DocumentResponse{
		ID:                d.ID.Hex(),
		ProjectID:         d.ProjectID.Hex(),
		Filename:          d.Filename,
		FileType:          d.FileType,
		SizeBytes:         d.SizeBytes,
		UploadedAt:        d.UploadedAt,
		ContentDate:       d.ContentDate,
		ContentDateSource: d.ContentDateSource,
	}
}

// EffectiveDate is the content date when known, else the upload time.
func (d *SourceDocument) EffectiveDate() time.Time {
	if d.ContentDate != nil {
		return *d.ContentDate
	}
	return d.UploadedAt
}
