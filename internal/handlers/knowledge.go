package handlers

import (
	"bytes"
	"errors"
	"log"

	"briefbase/internal/models"
	"briefbase/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// KnowledgeHandler serves the compressed knowledge base and triggers
// compression
type KnowledgeHandler struct {
	projects *services.ProjectStore
	compress *services.CompressService
	markdown goldmark.Markdown
}

// NewKnowledgeHandler creates a new knowledge base handler
func NewKnowledgeHandler(projects *services.ProjectStore, compress *services.CompressService) *KnowledgeHandler {
	return &KnowledgeHandler{
		projects: projects,
		compress: compress,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Get handles GET /api/projects/:id/knowledge-base. ?format=md returns raw
// markdown, ?format=html a rendered fragment; the default is JSON.
func (h *KnowledgeHandler) Get(c *fiber.Ctx) error {
	project, ok := h.loadProject(c)
	if !ok {
		return nil
	}
	if project.CompressedKB == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Project has no compressed knowledge base yet",
		})
	}

	switch c.Query("format") {
	case "md":
		c.Set("Content-Type", "text/markdown; charset=utf-8")
		return c.SendString(project.CompressedKB)
	case "html":
		var buf bytes.Buffer
		if err := h.markdown.Convert([]byte(project.CompressedKB), &buf); err != nil {
			log.Printf("❌ [KB] Failed to render knowledge base: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to render knowledge base",
			})
		}
		c.Set("Content-Type", "text/html; charset=utf-8")
		return c.Send(buf.Bytes())
	default:
		return c.JSON(fiber.Map{
			"content":       project.CompressedKB,
			"token_count":   project.CompressedKBTokens,
			"compressed_at": project.CompressedKBAt,
		})
	}
}

// CompressRequest is the compress-knowledge-base request body
type CompressRequest struct {
	TargetTokens int `json:"target_tokens"`
}

// Compress handles POST /api/projects/:id/knowledge-base/compress. The call
// is synchronous;
// concurrent requests for the same project are rejected with 409.
func (h *KnowledgeHandler) Compress(c *fiber.Ctx) error {
	project, ok := h.loadProject(c)
	if !ok {
		return nil
	}

	var req CompressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.TargetTokens < services.MinCompressTargetTokens || req.TargetTokens > services.MaxCompressTargetTokens {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "target_tokens must be between 100 and 50000",
		})
	}

	log.Printf("📦 [KB] Compressing project %s to ~%d tokens", project.ID.Hex(), req.TargetTokens)

	if err := h.compress.Compress(c.Context(), project.ID, req.TargetTokens); err != nil {
		switch {
		case errors.Is(err, services.ErrCompressionInProgress):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Compression already in progress for this project",
			})
		case errors.Is(err, services.ErrNoSummaries):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Project has no completed summaries to compress",
			})
		default:
			log.Printf("❌ [KB] Compression failed for project %s: %v", project.ID.Hex(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Compression failed",
			})
		}
	}

	updated, err := h.projects.GetByID(c.Context(), project.ID)
	if err != nil {
		log.Printf("❌ [KB] Failed to reload project after compression: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Compression succeeded but project could not be reloaded",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "Knowledge base compressed",
		"token_count":   updated.CompressedKBTokens,
		"compressed_at": updated.CompressedKBAt,
	})
}

func (h *KnowledgeHandler) loadProject(c *fiber.Ctx) (*models.Project, bool) {
	projectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
		return nil, false
	}

	project, err := h.projects.GetByID(c.Context(), projectID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Project not found",
			})
		} else {
			log.Printf("❌ [KB] Failed to get project: %v", err)
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get project",
			})
		}
		return nil, false
	}
	return project, true
}
