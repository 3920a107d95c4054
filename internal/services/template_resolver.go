package services

import (
	"context"
	"time"

	"briefbase/internal/prompts"
	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateResolver resolves template content by slug with a short-lived cache
// in front of the template store. Edits become visible within the TTL.
// Resolution chain: slug match, then the store's default template, then the
// compiled-in fallback.
type TemplateResolver struct {
	source prompts.TemplateSource
	cache  *cache.Cache
}

type resolvedTemplate struct {
	content    string
	templateID *primitive.ObjectID
}

// NewTemplateResolver creates a resolver backed by the given source
func NewTemplateResolver(source prompts.TemplateSource) *TemplateResolver {
	return &TemplateResolver{
		source: source,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

// ResolveTemplate returns the template content for a slug plus the ID of the
// stored template that served it (nil when the built-in fallback was used).
func (r *TemplateResolver) ResolveTemplate(ctx context.Context, slug string) (string, *primitive.ObjectID) {
	if cached, found := r.cache.Get(slug); found {
		resolved := cached.(resolvedTemplate)
		return resolved.content, resolved.templateID
	}

	resolved := r.lookup(ctx, slug)
	r.cache.Set(slug, resolved, cache.DefaultExpiration)
	return resolved.content, resolved.templateID
}

// ResolveStyle returns the system prompt for a compression style slug. Style
// resolution never consults the default template, so styles get their own
// cache entries.
func (r *TemplateResolver) ResolveStyle(ctx context.Context, slug string) string {
	key := "style:" + slug
	if cached, found := r.cache.Get(key); found {
		return cached.(string)
	}

	content := prompts.ResolveStyle(ctx, r.source, slug)
	r.cache.Set(key, content, cache.DefaultExpiration)
	return content
}

// Invalidate drops a cached slug after a template edit
func (r *TemplateResolver) Invalidate(slug string) {
	r.cache.Delete(slug)
	r.cache.Delete("style:" + slug)
}

func (r *TemplateResolver) lookup(ctx context.Context, slug string) resolvedTemplate {
	content, id := prompts.Resolve(ctx, r.source, slug)
	return resolvedTemplate{content: content, templateID: id}
}
