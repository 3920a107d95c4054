package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Well-known prompt template slugs. Slugged templates are seeded once at
// startup and editable afterwards; seeding never overwrites an existing slug.
const (
	SlugMeetingTranscript  = "meeting_transcript"
	SlugGeneralContent     = "general_content"
	SlugKBCompression      = "kb_compression"
	SlugKBCompressionSales = "kb_compression_sales"
)

// PromptTemplate is a named instruction template with the fixed placeholder
// grammar {{filename}}, {{fileType}}, {{people}}, {{extractedText}}.
// At most one template carries the default flag at any time.
type PromptTemplate struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug      string             `bson:"slug,omitempty" json:"slug,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Content   string             `bson:"content" json:"content"`
	IsDefault bool               `bson:"isDefault" json:"is_default"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}
