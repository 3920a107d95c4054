package handlers

import (
	"errors"
	"log"
	"strings"

	"briefbase/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateHandler exposes prompt template listing and editing
type TemplateHandler struct {
	templates *services.TemplateStore
	resolver  *services.TemplateResolver
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templates *services.TemplateStore, resolver *services.TemplateResolver) *TemplateHandler {
	return &TemplateHandler{templates: templates, resolver: resolver}
}

// List handles GET /api/templates
func (h *TemplateHandler) List(c *fiber.Ctx) error {
	templates, err := h.templates.List(c.Context())
	if err != nil {
		log.Printf("❌ [TEMPLATE] Failed to list templates: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list templates",
		})
	}
	return c.JSON(fiber.Map{"templates": templates})
}

// UpdateTemplateRequest is the edit-template request body
type UpdateTemplateRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Update handles PUT /api/templates/:id
func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	templateID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid template ID",
		})
	}

	var req UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Template content is required",
		})
	}

	existing, err := h.templates.GetByID(c.Context(), templateID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Template not found",
			})
		}
		log.Printf("❌ [TEMPLATE] Failed to get template: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get template",
		})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = existing.Name
	}

	if err := h.templates.Update(c.Context(), templateID, name, req.Content); err != nil {
		log.Printf("❌ [TEMPLATE] Failed to update template: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update template",
		})
	}

	if existing.Slug != "" {
		h.resolver.Invalidate(existing.Slug)
	}

	log.Printf("✅ [TEMPLATE] Updated template %s (%s)", templateID.Hex(), name)
	return c.JSON(fiber.Map{
		"message": "Template updated",
	})
}
