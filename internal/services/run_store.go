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

// RunStore handles MongoDB CRUD for processing runs. Runs are append-only
// history; reprocessing creates a new run rather than mutating the old one.
type RunStore struct {
	collection *mongo.Collection
}

// NewRunStore creates a new run store
func NewRunStore(mongodb *database.MongoDB) *RunStore {
	return &RunStore{
		collection: mongodb.Collection(database.CollectionProcessingRuns),
	}
}

// Create inserts a new queued run for a document
func (s *RunStore) Create(ctx context.Context, run *models.ProcessingRun) error {
	run.CreatedAt = time.Now()
	if run.Status == "" {
		run.Status = models.StatusQueued
	}

	result, err := s.collection.InsertOne(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to create processing run: %w", err)
	}

	run.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// MarkProcessing transitions a queued run to processing and stamps startedAt
func (s *RunStore) MarkProcessing(ctx context.Context, runID primitive.ObjectID) error {
	now := time.Now()
	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":    runID,
			"status": models.StatusQueued,
		},
		bson.M{"$set": bson.M{
			"status":    models.StatusProcessing,
			"startedAt": now,
		}})
	if err != nil {
		return fmt.Errorf("failed to mark run processing: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Complete transitions a processing run to complete
func (s *RunStore) Complete(ctx context.Context, runID primitive.ObjectID) error {
	now := time.Now()
	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":    runID,
			"status": models.StatusProcessing,
		},
		bson.M{"$set": bson.M{
			"status":      models.StatusComplete,
			"completedAt": now,
		}})
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Fail transitions a processing run to failed with a bounded error message
func (s *RunStore) Fail(ctx context.Context, runID primitive.ObjectID, message string) error {
	if len(message) > maxStoredErrorChars {
		message = message[:maxStoredErrorChars]
	}

	now := time.Now()
	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":    runID,
			"status": models.StatusProcessing,
		},
		bson.M{"$set": bson.M{
			"status":       models.StatusFailed,
			"errorMessage": message,
			"completedAt":  now,
		}})
	if err != nil {
		return fmt.Errorf("failed to fail run: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// LatestByDocument returns the most recent run for a document
func (s *RunStore) LatestByDocument(ctx context.Context, docID primitive.ObjectID) (*models.ProcessingRun, error) {
	var run models.ProcessingRun
	err := s.collection.FindOne(ctx,
		bson.M{"sourceDocumentId": docID},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})).Decode(&run)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

// ListStalled returns runs still processing whose startedAt is older than the
// threshold and that have not been flagged yet.
func (s *RunStore) ListStalled(ctx context.Context, olderThan time.Time) ([]models.ProcessingRun, error) {
	cursor, err := s.collection.Find(ctx, bson.M{
		"status":    models.StatusProcessing,
		"startedAt": bson.M{"$lt": olderThan},
		"stalled":   bson.M{"$ne": true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stalled runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []models.ProcessingRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode runs: %w", err)
	}
	return runs, nil
}

// MarkStalled flags a run as stalled. The run keeps its processing status;
// the flag only surfaces the condition, recovery stays a human decision.
func (s *RunStore) MarkStalled(ctx context.Context, runID primitive.ObjectID) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": runID},
		bson.M{"$set": bson.M{"stalled": true}})
	if err != nil {
		return fmt.Errorf("failed to mark run stalled: %w", err)
	}
	return nil
}

// DeleteByDocument removes all runs of a source document
func (s *RunStore) DeleteByDocument(ctx context.Context, docID primitive.ObjectID) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{"sourceDocumentId": docID})
	if err != nil {
		return fmt.Errorf("failed to delete runs: %w", err)
	}
	return nil
}
