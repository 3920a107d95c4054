package handlers

import (
	"errors"
	"log"
	"time"

	"briefbase/internal/models"
	"briefbase/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentStatus is one row of the processing status poll.
type DocumentStatus struct {
	DocumentID   string     `json:"document_id"`
	Filename     string     `json:"filename"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Truncated    bool       `json:"truncated"`
	Stalled      bool       `json:"stalled,omitempty"`
	GeneratedAt  *time.Time `json:"generated_at,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
}

// Status handles GET /api/projects/:id/processing-status. The UI polls this
// endpoint while documents are in flight.
func (h *DocumentHandler) Status(c *fiber.Ctx) error {
	projectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	docs, err := h.documents.ListByProject(c.Context(), projectID)
	if err != nil {
		log.Printf("❌ [STATUS] Failed to list documents: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	statuses := make([]DocumentStatus, 0, len(docs))
	pending := 0
	for i := range docs {
		doc := &docs[i]
		status := DocumentStatus{
			DocumentID: doc.ID.Hex(),
			Filename:   doc.Filename,
			Status:     models.StatusQueued,
		}

		summary, err := h.summaries.GetByDocument(c.Context(), doc.ID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			log.Printf("❌ [STATUS] Failed to get summary for %s: %v", doc.ID.Hex(), err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get processing status",
			})
		}
		if summary != nil {
			status.Status = summary.ProcessingStatus
			status.ErrorMessage = summary.ErrorMessage
			status.Truncated = summary.Truncated
			status.GeneratedAt = summary.GeneratedAt
		}

		if run, err := h.runs.LatestByDocument(c.Context(), doc.ID); err == nil {
			status.Stalled = run.Stalled
			status.StartedAt = run.StartedAt
		}

		if status.Status == models.StatusQueued || status.Status == models.StatusProcessing {
			pending++
		}
		statuses = append(statuses, status)
	}

	return c.JSON(fiber.Map{
		"documents": statuses,
		"pending":   pending,
	})
}
