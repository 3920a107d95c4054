package prompts

import (
	"context"
	"log/slog"

	"briefbase/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateSource is the slice of the template store the resolver needs.
type TemplateSource interface {
	GetBySlug(ctx context.Context, slug string) (*models.PromptTemplate, error)
	GetDefault(ctx context.Context) (*models.PromptTemplate, error)
}

// Resolve picks the template for a summarization run. Chain: the template
// registered under slug, then the store's default template, then the built-in
// constant for the slug. Store errors are logged and fall through so a flaky
// database never blocks summarization. The returned ID is nil when the
// built-in fallback served.
func Resolve(ctx context.Context, source TemplateSource, slug string) (string, *primitive.ObjectID) {
	if source != nil {
		tpl, err := source.GetBySlug(ctx, slug)
		if err != nil {
			slog.Warn("template lookup by slug failed", "slug", slug, "error", err)
		} else if tpl != nil && tpl.Content != "" {
			id := tpl.ID
			return tpl.Content, &id
		}

		tpl, err = source.GetDefault(ctx)
		if err != nil {
			slog.Warn("default template lookup failed", "error", err)
		} else if tpl != nil && tpl.Content != "" {
			id := tpl.ID
			return tpl.Content, &id
		}
	}

	return Builtin(slug), nil
}

// ResolveStyle picks the system prompt for a compression style. Unlike
// summarization, the default-flag step is skipped: the default template is a
// summarization prompt and must never drive compression. Chain: the template
// registered under slug, then the built-in constant.
func ResolveStyle(ctx context.Context, source TemplateSource, slug string) string {
	if source != nil {
		tpl, err := source.GetBySlug(ctx, slug)
		if err != nil {
			slog.Warn("style template lookup failed", "slug", slug, "error", err)
		} else if tpl != nil && tpl.Content != "" {
			return tpl.Content
		}
	}

	return Builtin(slug)
}

// Builtin returns the compiled-in template body for a slug. Unknown slugs get
// the general-content template.
func Builtin(slug string) string {
	switch slug {
	case models.SlugMeetingTranscript:
		return MeetingTranscriptTemplate
	case models.SlugKBCompression:
		return KBCompressionTemplate
	case models.SlugKBCompressionSales:
		return KBCompressionSalesTemplate
	default:
		return GeneralContentTemplate
	}
}
