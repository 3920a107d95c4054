package services

import (
	"context"
	"fmt"
	"time"

	"briefbase/internal/database"
	"briefbase/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProjectStore handles MongoDB CRUD for projects
type ProjectStore struct {
	collection *mongo.Collection
}

// NewProjectStore creates a new project store
func NewProjectStore(mongodb *database.MongoDB) *ProjectStore {
	return &ProjectStore{
		collection: mongodb.Collection(database.CollectionProjects),
	}
}

// Create inserts a new project
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Category == "" {
		project.Category = models.ProjectCategoryGeneral
	}

	result, err := s.collection.InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	project.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID retrieves a project by ID
func (s *ProjectStore) GetByID(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.collection.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// List returns all projects sorted by most recently updated
func (s *ProjectStore) List(ctx context.Context) ([]models.Project, error) {
	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer cursor.Close(ctx)

	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// Touch bumps the project's updatedAt timestamp
func (s *ProjectStore) Touch(ctx context.Context, projectID primitive.ObjectID) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{"updatedAt": time.Now()}})
	if err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}
	return nil
}

// SetCompressedKB stores the compressed knowledge base on the project.
// Only called after a fully successful compression; a failed compression
// leaves the previous KB intact.
func (s *ProjectStore) SetCompressedKB(ctx context.Context, projectID primitive.ObjectID, content string, tokenCount int) error {
	now := time.Now()
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": projectID},
		bson.M{"$set": bson.M{
			"compressedKb":           content,
			"compressedKbAt":         now,
			"compressedKbTokenCount": tokenCount,
			"updatedAt":              now,
		}})
	if err != nil {
		return fmt.Errorf("failed to store compressed KB: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
