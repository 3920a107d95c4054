package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Person is a contact, optionally linked to projects through ProjectPerson.
type Person struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Organization string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Role         string             `bson:"role,omitempty" json:"role,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
}

// ProjectPerson links a person to a project with a project-scoped role and
// provenance (manually added vs. auto-extracted from transcript speakers).
type ProjectPerson struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID     primitive.ObjectID `bson:"projectId" json:"project_id"`
	PersonID      primitive.ObjectID `bson:"personId" json:"person_id"`
	Role          string             `bson:"role,omitempty" json:"role,omitempty"`
	AutoExtracted bool               `bson:"autoExtracted" json:"auto_extracted"`
	CreatedAt     time.Time          `bson:"createdAt" json:"created_at"`
}

// RosterEntry is the read-only roster view consumed by prompt building.
type RosterEntry struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Role         string `json:"role,omitempty"`
}
