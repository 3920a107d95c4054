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

// UsageStore records per-call LLM token accounting
type UsageStore struct {
	collection *mongo.Collection
}

// NewUsageStore creates a new usage store
func NewUsageStore(mongodb *database.MongoDB) *UsageStore {
	return &UsageStore{
		collection: mongodb.Collection(database.CollectionLLMUsage),
	}
}

// Record inserts a usage record
func (s *UsageStore) Record(ctx context.Context, usage *models.LLMUsage) error {
	usage.CreatedAt = time.Now()
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	if _, err := s.collection.InsertOne(ctx, usage); err != nil {
		return fmt.Errorf("failed to record LLM usage: %w", err)
	}
	return nil
}

// ListByProject returns recent usage records for a project
func (s *UsageStore) ListByProject(ctx context.Context, projectID primitive.ObjectID, limit int64) ([]models.LLMUsage, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	cursor, err := s.collection.Find(ctx,
		bson.M{"projectId": projectID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list LLM usage: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.LLMUsage
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode LLM usage: %w", err)
	}
	return records, nil
}
