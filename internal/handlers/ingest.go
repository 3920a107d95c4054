package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"briefbase/internal/contentdate"
	"briefbase/internal/models"
	"briefbase/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IngestRequest is the JSON ingest body for transcript integrations that push
// text directly instead of uploading a file. The optional date hint carries a
// sidecar artifact (a notification email or a calendar invite) used only for
// content-date inference; it is never stored. Speakers, when present, are
// merged into the project roster so later summaries can name them.
type IngestRequest struct {
	Filename string   `json:"filename"`
	Content  string   `json:"content"`
	Speakers []string `json:"speakers,omitempty"`
	DateHint *struct {
		Format string `json:"format"`
		Data   string `json:"data"`
	} `json:"date_hint,omitempty"`
}

// Ingest handles POST /api/projects/:id/ingest
func (h *DocumentHandler) Ingest(c *fiber.Ctx) error {
	projectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}
	if _, err := h.projects.GetByID(c.Context(), projectID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Project not found",
			})
		}
		log.Printf("❌ [INGEST] Failed to get project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get project",
		})
	}

	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Content) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Content is required",
		})
	}
	if len(req.Content) > models.MaxDocumentBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("Content exceeds the %dMB limit", models.MaxDocumentBytes/(1024*1024)),
		})
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = fmt.Sprintf("transcript-%s.txt", time.Now().UTC().Format("2006-01-02"))
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".txt") {
		filename += ".txt"
	}

	var contentDate *time.Time
	dateSource := ""
	if req.DateHint != nil {
		switch req.DateHint.Format {
		case models.FormatEmail, models.FormatICS:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date_hint.format must be email or ics",
			})
		}
		if date := contentdate.Infer([]byte(req.DateHint.Data), req.DateHint.Format, filename); date != nil {
			contentDate = date
			dateSource = models.DateSourceExtracted
		} else {
			log.Printf("⚠️ [INGEST] No content date found in %s hint for %s", req.DateHint.Format, filename)
		}
	}

	linkSpeakers(c.Context(), h.people, projectID, req.Speakers)

	return h.storeAndEnqueue(c, projectID, filename, models.FormatPlainText, []byte(req.Content), contentDate, dateSource)
}

type speakerLinker interface {
	ResolveOrCreate(ctx context.Context, person *models.Person) (primitive.ObjectID, error)
	AddToProject(ctx context.Context, link *models.ProjectPerson) error
}

// linkSpeakers upserts transcript speakers into the project roster, marked as
// auto-extracted. Failures are logged and never block ingest.
func linkSpeakers(ctx context.Context, people speakerLinker, projectID primitive.ObjectID, speakers []string) {
	for _, speaker := range speakers {
		name := strings.TrimSpace(speaker)
		if name == "" {
			continue
		}

		personID, err := people.ResolveOrCreate(ctx, &models.Person{Name: name})
		if err != nil {
			log.Printf("⚠️ [INGEST] Failed to resolve speaker %q: %v", name, err)
			continue
		}
		if err := people.AddToProject(ctx, &models.ProjectPerson{
			ProjectID:     projectID,
			PersonID:      personID,
			Role:          "Meeting participant",
			AutoExtracted: true,
		}); err != nil {
			log.Printf("⚠️ [INGEST] Failed to link speaker %q to project %s: %v", name, projectID.Hex(), err)
		}
	}
}
