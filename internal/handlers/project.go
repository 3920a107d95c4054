package handlers

import (
	"errors"
	"log"
	"strings"

	"briefbase/internal/models"
	"briefbase/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectHandler handles project CRUD requests
type ProjectHandler struct {
	projects *services.ProjectStore
	activity *services.ActivityService
	usage    *services.UsageStore
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projects *services.ProjectStore, activity *services.ActivityService, usage *services.UsageStore) *ProjectHandler {
	return &ProjectHandler{projects: projects, activity: activity, usage: usage}
}

// CreateProjectRequest is the create-project request body
type CreateProjectRequest struct {
	Name                string `json:"name"`
	Category            string `json:"category"`
	CompanyContext      string `json:"company_context"`
	BusinessUnitContext string `json:"business_unit_context"`
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Project name is required",
		})
	}

	project := &models.Project{
		Name:                req.Name,
		Category:            req.Category,
		CompanyContext:      req.CompanyContext,
		BusinessUnitContext: req.BusinessUnitContext,
	}
	if err := h.projects.Create(c.Context(), project); err != nil {
		log.Printf("❌ [PROJECT] Failed to create project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create project",
		})
	}

	log.Printf("✅ [PROJECT] Created project %s (%s)", project.ID.Hex(), project.Name)
	return c.Status(fiber.StatusCreated).JSON(project.ToResponse())
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projects.List(c.Context())
	if err != nil {
		log.Printf("❌ [PROJECT] Failed to list projects: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list projects",
		})
	}

	responses := make([]models.ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, projects[i].ToResponse())
	}
	return c.JSON(fiber.Map{"projects": responses})
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, ok := h.loadProject(c)
	if !ok {
		return nil
	}
	return c.JSON(project.ToResponse())
}

// Activity handles GET /api/projects/:id/activity
func (h *ProjectHandler) Activity(c *fiber.Ctx) error {
	project, ok := h.loadProject(c)
	if !ok {
		return nil
	}

	entries, err := h.activity.ListByProject(c.Context(), project.ID, int64(c.QueryInt("limit", 50)))
	if err != nil {
		log.Printf("❌ [PROJECT] Failed to list activity: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list activity",
		})
	}
	return c.JSON(fiber.Map{"activity": entries})
}

// Usage handles GET /api/projects/:id/usage
func (h *ProjectHandler) Usage(c *fiber.Ctx) error {
	project, ok := h.loadProject(c)
	if !ok {
		return nil
	}

	records, err := h.usage.ListByProject(c.Context(), project.ID, int64(c.QueryInt("limit", 100)))
	if err != nil {
		log.Printf("❌ [PROJECT] Failed to list usage: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list usage",
		})
	}
	return c.JSON(fiber.Map{"usage": records})
}

// loadProject parses :id and fetches the project, writing the error response
// itself when it returns ok=false.
func (h *ProjectHandler) loadProject(c *fiber.Ctx) (*models.Project, bool) {
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
			log.Printf("❌ [PROJECT] Failed to get project: %v", err)
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get project",
			})
		}
		return nil, false
	}
	return project, true
}
