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

// maxStoredErrorChars bounds the error message persisted on a failed summary.
const maxStoredErrorChars = 1000

// SummaryStore handles MongoDB CRUD for summaries. Status transitions are
// conditional updates so two workers can never both own the same run.
type SummaryStore struct {
	collection *mongo.Collection
}

// NewSummaryStore creates a new summary store
func NewSummaryStore(mongodb *database.MongoDB) *SummaryStore {
	return &SummaryStore{
		collection: mongodb.Collection(database.CollectionSummaries),
	}
}

// Create inserts a queued summary shell for a document
func (s *SummaryStore) Create(ctx context.Context, summary *models.Summary) error {
	now := time.Now()
	summary.CreatedAt = now
	summary.UpdatedAt = now
	if summary.ProcessingStatus == "" {
		summary.ProcessingStatus = models.StatusQueued
	}

	result, err := s.collection.InsertOne(ctx, summary)
	if err != nil {
		return fmt.Errorf("failed to create summary: %w", err)
	}

	summary.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByDocument retrieves the summary of a source document
func (s *SummaryStore) GetByDocument(ctx context.Context, docID primitive.ObjectID) (*models.Summary, error) {
	var summary models.Summary
	err := s.collection.FindOne(ctx, bson.M{"sourceDocumentId": docID}).Decode(&summary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

// ListCompleteByProject returns all complete summaries of a project
func (s *SummaryStore) ListCompleteByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Summary, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{
			"projectId":        projectID,
			"processingStatus": models.StatusComplete,
		},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list complete summaries: %w", err)
	}
	defer cursor.Close(ctx)

	var summaries []models.Summary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to decode summaries: %w", err)
	}
	return summaries, nil
}

// MarkProcessing transitions queued → processing. Returns ErrStatusConflict
// if the summary is not queued, meaning another worker claimed it first.
func (s *SummaryStore) MarkProcessing(ctx context.Context, summaryID primitive.ObjectID) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":              summaryID,
			"processingStatus": models.StatusQueued,
		},
		bson.M{"$set": bson.M{
			"processingStatus": models.StatusProcessing,
			"updatedAt":        time.Now(),
		}})
	if err != nil {
		return fmt.Errorf("failed to mark summary processing: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Complete transitions processing → complete with the generated artifact
func (s *SummaryStore) Complete(ctx context.Context, summaryID primitive.ObjectID, content, blobURL, model string, tokenCount int, truncated bool, templateID *primitive.ObjectID) error {
	now := time.Now()
	set := bson.M{
		"processingStatus": models.StatusComplete,
		"content":          content,
		"blobUrl":          blobURL,
		"generatedAt":      now,
		"llmModel":         model,
		"tokenCount":       tokenCount,
		"truncated":        truncated,
		"updatedAt":        now,
	}
	if templateID != nil {
		set["promptTemplateId"] = *templateID
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":              summaryID,
			"processingStatus": models.StatusProcessing,
		},
		bson.M{
			"$set":   set,
			"$unset": bson.M{"errorMessage": ""},
		})
	if err != nil {
		return fmt.Errorf("failed to complete summary: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// Fail transitions processing → failed with a bounded error message
func (s *SummaryStore) Fail(ctx context.Context, summaryID primitive.ObjectID, message string) error {
	if len(message) > maxStoredErrorChars {
		message = message[:maxStoredErrorChars]
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":              summaryID,
			"processingStatus": models.StatusProcessing,
		},
		bson.M{"$set": bson.M{
			"processingStatus": models.StatusFailed,
			"errorMessage":     message,
			"updatedAt":        time.Now(),
		}})
	if err != nil {
		return fmt.Errorf("failed to fail summary: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// ResetForReprocess transitions a terminal summary back to queued, clearing
// the previous artifact. Returns ErrStatusConflict if the summary is still
// queued or processing.
func (s *SummaryStore) ResetForReprocess(ctx context.Context, summaryID primitive.ObjectID) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id": summaryID,
			"processingStatus": bson.M{"$in": []string{
				models.StatusComplete,
				models.StatusFailed,
			}},
		},
		bson.M{
			"$set": bson.M{
				"processingStatus": models.StatusQueued,
				"truncated":        false,
				"updatedAt":        time.Now(),
			},
			"$unset": bson.M{
				"content":          "",
				"blobUrl":          "",
				"generatedAt":      "",
				"llmModel":         "",
				"tokenCount":       "",
				"errorMessage":     "",
				"promptTemplateId": "",
			},
		})
	if err != nil {
		return fmt.Errorf("failed to reset summary: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrStatusConflict
	}
	return nil
}

// DeleteByDocument removes the summary of a source document
func (s *SummaryStore) DeleteByDocument(ctx context.Context, docID primitive.ObjectID) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"sourceDocumentId": docID})
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return nil
}
