package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"briefbase/internal/blob"
	"briefbase/internal/models"
	"briefbase/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var contentTypes = map[string]string{
	models.FormatPlainText: "text/plain",
	models.FormatMarkdown:  "text/markdown",
	models.FormatWebVTT:    "text/vtt",
	models.FormatSRT:       "application/x-subrip",
	models.FormatPDF:       "application/pdf",
}

// DocumentHandler handles source document upload, deletion and reprocessing
type DocumentHandler struct {
	documents *services.DocumentStore
	summaries *services.SummaryStore
	runs      *services.RunStore
	projects  *services.ProjectStore
	people    *services.PersonStore
	blobs     blob.Store
	pipeline  *services.PipelineService
	activity  *services.ActivityService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	documents *services.DocumentStore,
	summaries *services.SummaryStore,
	runs *services.RunStore,
	projects *services.ProjectStore,
	people *services.PersonStore,
	blobs blob.Store,
	pipeline *services.PipelineService,
	activity *services.ActivityService,
) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		summaries: summaries,
		runs:      runs,
		projects:  projects,
		people:    people,
		blobs:     blobs,
		pipeline:  pipeline,
		activity:  activity,
	}
}

// Upload handles POST /api/projects/:id/documents
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
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
		log.Printf("❌ [DOCUMENT] Failed to get project: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get project",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file provided",
		})
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	if !models.IsStorableFormat(fileType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported file type .%s (supported: txt, md, vtt, srt, pdf)", fileType),
		})
	}
	if fileHeader.Size == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is empty",
		})
	}
	if fileHeader.Size > models.MaxDocumentBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File exceeds the %dMB limit", models.MaxDocumentBytes/(1024*1024)),
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("❌ [DOCUMENT] Failed to open uploaded file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("❌ [DOCUMENT] Failed to read uploaded file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	return h.storeAndEnqueue(c, projectID, fileHeader.Filename, fileType, data, nil, "")
}

// storeAndEnqueue persists the raw bytes, creates the document record and
// queues a pipeline run. Shared by multipart upload and JSON ingest.
func (h *DocumentHandler) storeAndEnqueue(c *fiber.Ctx, projectID primitive.ObjectID, filename, fileType string, data []byte, contentDate *time.Time, dateSource string) error {
	blobPath := fmt.Sprintf("projects/%s/documents/%s", projectID.Hex(), filename)
	blobURL, err := h.blobs.Put(c.Context(), blobPath, data, contentTypes[fileType])
	if err != nil {
		log.Printf("❌ [DOCUMENT] Failed to store blob: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store document",
		})
	}

	doc := &models.SourceDocument{
		ProjectID:         projectID,
		Filename:          filename,
		FileType:          fileType,
		SizeBytes:         int64(len(data)),
		BlobURL:           blobURL,
		ContentDate:       contentDate,
		ContentDateSource: dateSource,
	}
	if err := h.documents.Create(c.Context(), doc); err != nil {
		log.Printf("❌ [DOCUMENT] Failed to create document record: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create document",
		})
	}

	if err := h.pipeline.Enqueue(c.Context(), doc); err != nil {
		log.Printf("❌ [DOCUMENT] Failed to enqueue document %s: %v", doc.ID.Hex(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Document stored but could not be queued for processing",
		})
	}

	h.projects.Touch(c.Context(), projectID)
	docID := doc.ID
	h.activity.Record(models.ActivityEntry{
		ProjectID:        projectID,
		Action:           models.ActionDocumentUploaded,
		SourceDocumentID: &docID,
		Metadata: map[string]interface{}{
			"filename":  filename,
			"fileType":  fileType,
			"sizeBytes": doc.SizeBytes,
		},
	})

	log.Printf("✅ [DOCUMENT] Uploaded %s (%d bytes) to project %s", filename, len(data), projectID.Hex())
	return c.Status(fiber.StatusCreated).JSON(doc.ToResponse())
}

// List handles GET /api/projects/:id/documents
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	projectID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}

	docs, err := h.documents.ListByProject(c.Context(), projectID)
	if err != nil {
		log.Printf("❌ [DOCUMENT] Failed to list documents: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	responses := make([]models.DocumentResponse, 0, len(docs))
	for i := range docs {
		responses = append(responses, docs[i].ToResponse())
	}
	return c.JSON(fiber.Map{"documents": responses})
}

// GetSummary handles GET /api/documents/:id/summary
func (h *DocumentHandler) GetSummary(c *fiber.Ctx) error {
	doc, ok := h.loadDocument(c)
	if !ok {
		return nil
	}

	summary, err := h.summaries.GetByDocument(c.Context(), doc.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Summary not found",
			})
		}
		log.Printf("❌ [DOCUMENT] Failed to get summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get summary",
		})
	}
	return c.JSON(summary.ToResponse())
}

// SetContentDate handles PATCH /api/documents/:id/content-date
func (h *DocumentHandler) SetContentDate(c *fiber.Ctx) error {
	doc, ok := h.loadDocument(c)
	if !ok {
		return nil
	}

	var req struct {
		ContentDate string `json:"content_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	date, err := time.Parse("2006-01-02", req.ContentDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content_date must be formatted YYYY-MM-DD",
		})
	}

	if err := h.documents.SetManualContentDate(c.Context(), doc.ID, date); err != nil {
		log.Printf("❌ [DOCUMENT] Failed to set content date: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to set content date",
		})
	}

	doc.ContentDate = &date
	doc.ContentDateSource = models.DateSourceManual
	return c.JSON(doc.ToResponse())
}

// Reprocess handles POST /api/documents/:id/reprocess
func (h *DocumentHandler) Reprocess(c *fiber.Ctx) error {
	doc, ok := h.loadDocument(c)
	if !ok {
		return nil
	}

	if err := h.pipeline.Reprocess(c.Context(), doc); err != nil {
		if errors.Is(err, services.ErrStatusConflict) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Document is currently being processed",
			})
		}
		log.Printf("❌ [DOCUMENT] Failed to reprocess document %s: %v", doc.ID.Hex(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reprocess document",
		})
	}

	log.Printf("🔄 [DOCUMENT] Reprocessing document %s", doc.ID.Hex())
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Document queued for reprocessing",
	})
}

// Delete handles DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	doc, ok := h.loadDocument(c)
	if !ok {
		return nil
	}

	blobURLs := []string{doc.BlobURL}
	if summary, err := h.summaries.GetByDocument(c.Context(), doc.ID); err == nil && summary.BlobURL != "" {
		blobURLs = append(blobURLs, summary.BlobURL)
	}
	if err := h.blobs.Delete(c.Context(), blobURLs...); err != nil {
		log.Printf("⚠️ [DOCUMENT] Failed to delete blobs for %s: %v", doc.ID.Hex(), err)
	}

	if err := h.summaries.DeleteByDocument(c.Context(), doc.ID); err != nil {
		log.Printf("❌ [DOCUMENT] Failed to delete summary: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}
	if err := h.runs.DeleteByDocument(c.Context(), doc.ID); err != nil {
		log.Printf("❌ [DOCUMENT] Failed to delete runs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}
	if err := h.documents.Delete(c.Context(), doc.ID); err != nil {
		log.Printf("❌ [DOCUMENT] Failed to delete document record: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}

	h.projects.Touch(c.Context(), doc.ProjectID)
	docID := doc.ID
	h.activity.Record(models.ActivityEntry{
		ProjectID:        doc.ProjectID,
		Action:           models.ActionDocumentDeleted,
		SourceDocumentID: &docID,
		Metadata: map[string]interface{}{
			"filename": doc.Filename,
		},
	})

	log.Printf("🗑️ [DOCUMENT] Deleted document %s (%s)", doc.ID.Hex(), doc.Filename)
	return c.JSON(fiber.Map{
		"message": "Document deleted",
	})
}

// loadDocument parses :id and fetches the document, writing the error
// response itself when it returns ok=false.
func (h *DocumentHandler) loadDocument(c *fiber.Ctx) (*models.SourceDocument, bool) {
	docID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
		return nil, false
	}

	doc, err := h.documents.GetByID(c.Context(), docID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		} else {
			log.Printf("❌ [DOCUMENT] Failed to get document: %v", err)
			c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to get document",
			})
		}
		return nil, false
	}
	return doc, true
}
