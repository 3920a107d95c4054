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

// PeopleHandler manages the project roster fed into summarization prompts
type PeopleHandler struct {
	people   *services.PersonStore
	projects *services.ProjectStore
}

// NewPeopleHandler creates a new people handler
func NewPeopleHandler(people *services.PersonStore, projects *services.ProjectStore) *PeopleHandler {
	return &PeopleHandler{people: people, projects: projects}
}

// AddPersonRequest is the add-person-to-project request body
type AddPersonRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization"`
	Role         string `json:"role"`
}

// Add handles POST /api/projects/:id/people
func (h *PeopleHandler) Add(c *fiber.Ctx) error {
	projectID, ok := h.resolveProject(c)
	if !ok {
		return nil
	}

	var req AddPersonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Person name is required",
		})
	}

	personID, err := h.people.ResolveOrCreate(c.Context(), &models.Person{
		Name:         req.Name,
		Email:        strings.TrimSpace(req.Email),
		Organization: req.Organization,
		Role:         req.Role,
	})
	if err != nil {
		log.Printf("❌ [PEOPLE] Failed to resolve person: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add person",
		})
	}

	if err := h.people.AddToProject(c.Context(), &models.ProjectPerson{
		ProjectID: projectID,
		PersonID:  personID,
		Role:      req.Role,
	}); err != nil {
		log.Printf("❌ [PEOPLE] Failed to link person to project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add person to project",
		})
	}

	log.Printf("✅ [PEOPLE] Added %s to project %s", req.Name, projectID.Hex())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"person_id": personID.Hex(),
	})
}

// Roster handles GET /api/projects/:id/people
func (h *PeopleHandler) Roster(c *fiber.Ctx) error {
	projectID, ok := h.resolveProject(c)
	if !ok {
		return nil
	}

	roster, err := h.people.ListRoster(c.Context(), projectID)
	if err != nil {
		log.Printf("❌ [PEOPLE] Failed to list roster: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list roster",
		})
	}
	return c.JSON(fiber.Map{"people": roster})
}

func (h *PeopleHandler) resolveProject(c *fiber.Ctx) (primitive.ObjectID, bool) {
	projectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
		return primitive.NilObjectID, false
	}
	if _, err := h.projects.GetByID(c.Context(), projectID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Project not found",
			})
		} else {
			log.Printf("❌ [PEOPLE] Failed to get project: %v", err)
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get project",
			})
		}
		return primitive.NilObjectID, false
	}
	return projectID, true
}
