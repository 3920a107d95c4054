package services

import (
	"context"
	"testing"

	"briefbase/internal/models"
	"briefbase/internal/prompts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeTemplateSource struct {
	bySlug map[string]*models.PromptTemplate
	def    *models.PromptTemplate
}

func (f *fakeTemplateSource) GetBySlug(ctx context.Context, slug string) (*models.PromptTemplate, error) {
	return f.bySlug[slug], nil
}

func (f *fakeTemplateSource) GetDefault(ctx context.Context) (*models.PromptTemplate, error) {
	return f.def, nil
}

func TestResolveTemplateReturnsStoredID(t *testing.T) {
	id := primitive.NewObjectID()
	resolver := NewTemplateResolver(&fakeTemplateSource{
		bySlug: map[string]*models.PromptTemplate{
			models.SlugMeetingTranscript: {ID: id, Slug: models.SlugMeetingTranscript, Content: "edited transcript"},
		},
	})

	content, gotID := resolver.ResolveTemplate(context.Background(), models.SlugMeetingTranscript)
	if content != "edited transcript" {
		t.Errorf("Expected stored content, got: %q", content)
	}
	if gotID == nil || *gotID != id {
		t.Errorf("Expected template ID %s, got %v", id.Hex(), gotID)
	}
}

func TestResolveTemplateFallsBackToDefault(t *testing.T) {
	resolver := NewTemplateResolver(&fakeTemplateSource{
		bySlug: map[string]*models.PromptTemplate{},
		def:    &models.PromptTemplate{ID: primitive.NewObjectID(), Content: "default template"},
	})

	content, gotID := resolver.ResolveTemplate(context.Background(), models.SlugGeneralContent)
	if content != "default template" {
		t.Errorf("Expected default template, got: %q", content)
	}
	if gotID == nil {
		t.Error("Expected stored template ID for default, got nil")
	}
}

func TestResolveStyleSkipsDefaultTemplate(t *testing.T) {
	// A missing compression slug must resolve to the built-in style, never to
	// the project's default summarization template.
	resolver := NewTemplateResolver(&fakeTemplateSource{
		bySlug: map[string]*models.PromptTemplate{},
		def:    &models.PromptTemplate{ID: primitive.NewObjectID(), Content: "default summarization template"},
	})

	got := resolver.ResolveStyle(context.Background(), models.SlugKBCompression)
	if got != prompts.KBCompressionTemplate {
		t.Errorf("Expected built-in compression style, got: %q", got)
	}
}

func TestResolveStyleCachedSeparatelyFromTemplate(t *testing.T) {
	source := &fakeTemplateSource{
		bySlug: map[string]*models.PromptTemplate{},
		def:    &models.PromptTemplate{ID: primitive.NewObjectID(), Content: "default template"},
	}
	resolver := NewTemplateResolver(source)

	// Warm the summarization cache for the slug first; the style lookup must
	// not pick up the default-template result it cached.
	if content, _ := resolver.ResolveTemplate(context.Background(), models.SlugKBCompression); content != "default template" {
		t.Fatalf("Expected default template for summarization path, got: %q", content)
	}
	if got := resolver.ResolveStyle(context.Background(), models.SlugKBCompression); got != prompts.KBCompressionTemplate {
		t.Errorf("Expected built-in compression style, got: %q", got)
	}
}

func TestInvalidateDropsStyleCache(t *testing.T) {
	source := &fakeTemplateSource{bySlug: map[string]*models.PromptTemplate{}}
	resolver := NewTemplateResolver(source)

	if got := resolver.ResolveStyle(context.Background(), models.SlugKBCompression); got != prompts.KBCompressionTemplate {
		t.Fatalf("Expected built-in style before edit, got: %q", got)
	}

	source.bySlug[models.SlugKBCompression] = &models.PromptTemplate{
		ID: primitive.NewObjectID(), Slug: models.SlugKBCompression, Content: "edited style",
	}
	resolver.Invalidate(models.SlugKBCompression)

	if got := resolver.ResolveStyle(context.Background(), models.SlugKBCompression); got != "edited style" {
		t.Errorf("Expected edited style after invalidation, got: %q", got)
	}
}
