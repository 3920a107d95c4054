package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"briefbase/internal/database"
	"briefbase/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityService writes the project audit trail. Recording is fire-and-
// forget: a failed insert is logged and discarded, never surfaced to the
// operation that produced the event.
type ActivityService struct {
	collection *mongo.Collection
}

// NewActivityService creates a new activity service
func NewActivityService(mongodb *database.MongoDB) *ActivityService {
	return &ActivityService{
		collection: mongodb.Collection(database.CollectionActivityLog),
	}
}

// Record writes an activity entry asynchronously
func (s *ActivityService) Record(entry models.ActivityEntry) {
	entry.CreatedAt = time.Now()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := s.collection.InsertOne(ctx, entry); err != nil {
			slog.Warn("failed to record activity",
				"action", entry.Action,
				"project_id", entry.ProjectID.Hex(),
				"error", err)
		}
	}()
}

// ListByProject returns the most recent activity for a project
func (s *ActivityService) ListByProject(ctx context.Context, projectID primitive.ObjectID, limit int64) ([]models.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	cursor, err := s.collection.Find(ctx,
		bson.M{"projectId": projectID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.ActivityEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode activity: %w", err)
	}
	return entries, nil
}
