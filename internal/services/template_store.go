package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"briefbase/internal/database"
	"briefbase/internal/models"
	"briefbase/internal/prompts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TemplateStore handles MongoDB CRUD for prompt templates
type TemplateStore struct {
	collection *mongo.Collection
}

// NewTemplateStore creates a new template store
func NewTemplateStore(mongodb *database.MongoDB) *TemplateStore {
	return &TemplateStore{
		collection: mongodb.Collection(database.CollectionPromptTemplates),
	}
}

// GetBySlug retrieves a template by slug. Missing slug is not an error; the
// resolution chain falls through to the default and built-in templates.
func (s *TemplateStore) GetBySlug(ctx context.Context, slug string) (*models.PromptTemplate, error) {
	var tpl models.PromptTemplate
	err := s.collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&tpl)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get template by slug: %w", err)
	}
	return &tpl, nil
}

// GetDefault retrieves the template carrying the default flag, if any
func (s *TemplateStore) GetDefault(ctx context.Context) (*models.PromptTemplate, error) {
	var tpl models.PromptTemplate
	err := s.collection.FindOne(ctx, bson.M{"isDefault": true}).Decode(&tpl)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get default template: %w", err)
	}
	return &tpl, nil
}

// GetByID retrieves a template by ID
func (s *TemplateStore) GetByID(ctx context.Context, templateID primitive.ObjectID) (*models.PromptTemplate, error) {
	var tpl models.PromptTemplate
	err := s.collection.FindOne(ctx, bson.M{"_id": templateID}).Decode(&tpl)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &tpl, nil
}

// List returns all templates
func (s *TemplateStore) List(ctx context.Context) ([]models.PromptTemplate, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []models.PromptTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}
	return templates, nil
}

// Update replaces a template's name and content
func (s *TemplateStore) Update(ctx context.Context, templateID primitive.ObjectID, name, content string) error {
	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": templateID},
		bson.M{"$set": bson.M{
			"name":      name,
			"content":   content,
			"updatedAt": time.Now(),
		}})
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedSystemTemplates inserts the built-in slugged templates if absent.
// Existing slugs are never touched so operator edits survive restarts.
func (s *TemplateStore) SeedSystemTemplates(ctx context.Context) error {
	seeds := []models.PromptTemplate{
		{
			Slug:    models.SlugMeetingTranscript,
			Name:    "Meeting Transcript",
			Content: prompts.MeetingTranscriptTemplate,
		},
		{
			Slug:      models.SlugGeneralContent,
			Name:      "General Content",
			Content:   prompts.GeneralContentTemplate,
			IsDefault: true,
		},
		{
			Slug:    models.SlugKBCompression,
			Name:    "Knowledge Base Compression",
			Content: prompts.KBCompressionTemplate,
		},
		{
			Slug:    models.SlugKBCompressionSales,
			Name:    "Knowledge Base Compression (Sales)",
			Content: prompts.KBCompressionSalesTemplate,
		},
	}

	for _, seed := range seeds {
		count, err := s.collection.CountDocuments(ctx, bson.M{"slug": seed.Slug})
		if err != nil {
			return fmt.Errorf("failed to check template %s: %w", seed.Slug, err)
		}
		if count > 0 {
			continue
		}

		now := time.Now()
		seed.CreatedAt = now
		seed.UpdatedAt = now
		if _, err := s.collection.InsertOne(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", seed.Slug, err)
		}
		log.Printf("🌱 Seeded prompt template: %s", seed.Slug)
	}
	return nil
}
