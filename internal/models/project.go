package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project categories steering compression style selection. The set is open;
// styles.yaml in internal/prompts maps categories to compression styles.
const (
	ProjectCategoryGeneral = "general"
	ProjectCategorySales   = "sales"
)

// Project is the aggregate root: it owns source documents and holds the
// optional compressed knowledge-base artifact plus organizational context
// consumed by compression.
type Project struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                string             `bson:"name" json:"name"`
	Category            string             `bson:"category,omitempty" json:"category,omitempty"`
	CompanyContext      string             `bson:"companyContext,omitempty" json:"company_context,omitempty"`
	BusinessUnitContext string             `bson:"businessUnitContext,omitempty" json:"business_unit_context,omitempty"`
	CompressedKB        string             `bson:"compressedKb,omitempty" json:"compressed_kb,omitempty"`
	CompressedKBAt      *time.Time         `bson:"compressedKbAt,omitempty" json:"compressed_kb_at,omitempty"`
	CompressedKBTokens  int                `bson:"compressedKbTokenCount,omitempty" json:"compressed_kb_token_count,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updated_at"`
}

// ProjectResponse is the API shape for a project (KB content omitted; it is
// served by the knowledge-base endpoint).
type ProjectResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category,omitempty"`
	HasKB          bool       `json:"has_knowledge_base"`
	CompressedKBAt *time.Time `json:"compressed_kb_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToResponse converts a Project to its API shape.
func (p *Project) ToResponse() ProjectResponse {
	return ProjectResponse{
		ID:             p.ID.Hex(),
		Name:           p.Name,
		Category:       p.Category,
		HasKB:          p.CompressedKB != "",
		CompressedKBAt: p.CompressedKBAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
