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

// DocumentStore handles MongoDB CRUD for source documents
type DocumentStore struct {
	collection *mongo.Collection
}

// NewDocumentStore creates a new document store
func NewDocumentStore(mongodb *database.MongoDB) *DocumentStore {
	return &DocumentStore{
		collection: mongodb.Collection(database.CollectionSourceDocuments),
	}
}

// Create inserts a new source document
func (s *DocumentStore) Create(ctx context.Context, doc *models.SourceDocument) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}

	result, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to create source document: %w", err)
	}

	doc.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// GetByID retrieves a source document by ID
func (s *DocumentStore) GetByID(ctx context.Context, docID primitive.ObjectID) (*models.SourceDocument, error) {
	var doc models.SourceDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": docID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get source document: %w", err)
	}
	return &doc, nil
}

// GetByIDs retrieves multiple documents by their IDs
func (s *DocumentStore) GetByIDs(ctx context.Context, docIDs []primitive.ObjectID) ([]models.SourceDocument, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}
	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": docIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to get documents by IDs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.SourceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// ListByProject returns all documents of a project sorted by most recent upload
func (s *DocumentStore) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.SourceDocument, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"projectId": projectID},
		options.Find().SetSort(bson.D{{Key: "uploadedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []models.SourceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// SetExtractedContentDate stores a content date inferred from content or
// filename. A manual override always wins: the update matches only when the
// current provenance is not manual.
func (s *DocumentStore) SetExtractedContentDate(ctx context.Context, docID primitive.ObjectID, date time.Time) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":               docID,
			"contentDateSource": bson.M{"$ne": models.DateSourceManual},
		},
		bson.M{"$set": bson.M{
			"contentDate":       date,
			"contentDateSource": models.DateSourceExtracted,
		}})
	if err != nil {
		return fmt.Errorf("failed to set extracted content date: %w", err)
	}
	return nil
}

// SetFallbackContentDate records the upload time as content date, but only if
// no date has been set by any means yet.
func (s *DocumentStore) SetFallbackContentDate(ctx context.Context, docID primitive.ObjectID, date time.Time) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{
			"_id":         docID,
			"contentDate": nil,
		},
		bson.M{"$set": bson.M{
			"contentDate":       date,
			"contentDateSource": models.DateSourceUploaded,
		}})
	if err != nil {
		return fmt.Errorf("failed to set fallback content date: %w", err)
	}
	return nil
}

// SetManualContentDate records an explicit user override
func (s *DocumentStore) SetManualContentDate(ctx context.Context, docID primitive.ObjectID, date time.Time) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": docID},
		bson.M{"$set": bson.M{
			"contentDate":       date,
			"contentDateSource": models.DateSourceManual,
		}})
	if err != nil {
		return fmt.Errorf("failed to set manual content date: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a source document
func (s *DocumentStore) Delete(ctx context.Context, docID primitive.ObjectID) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": docID})
	if err != nil {
		return fmt.Errorf("failed to delete source document: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
