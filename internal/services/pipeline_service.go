package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"briefbase/internal/blob"
	"briefbase/internal/config"
	"briefbase/internal/contentdate"
	"briefbase/internal/extract"
	"briefbase/internal/llm"
	"briefbase/internal/logging"
	"briefbase/internal/models"
	"briefbase/internal/prompts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// summaryMaxTokens caps the summarization completion call.
const summaryMaxTokens = 8192

// Narrow store views so tests can run the pipeline against in-memory fakes.
// The concrete Mongo stores satisfy these.

type pipelineDocuments interface {
	GetByID(ctx context.Context, docID primitive.ObjectID) (*models.SourceDocument, error)
	SetExtractedContentDate(ctx context.Context, docID primitive.ObjectID, date time.Time) error
	SetFallbackContentDate(ctx context.Context, docID primitive.ObjectID, date time.Time) error
}

type pipelineSummaries interface {
	Create(ctx context.Context, summary *models.Summary) error
	GetByDocument(ctx context.Context, docID primitive.ObjectID) (*models.Summary, error)
	MarkProcessing(ctx context.Context, summaryID primitive.ObjectID) error
	Complete(ctx context.Context, summaryID primitive.ObjectID, content, blobURL, model string, tokenCount int, truncated bool, templateID *primitive.ObjectID) error
	Fail(ctx context.Context, summaryID primitive.ObjectID, message string) error
	ResetForReprocess(ctx context.Context, summaryID primitive.ObjectID) error
}

type pipelineRuns interface {
	Create(ctx context.Context, run *models.ProcessingRun) error
	MarkProcessing(ctx context.Context, runID primitive.ObjectID) error
	Complete(ctx context.Context, runID primitive.ObjectID) error
	Fail(ctx context.Context, runID primitive.ObjectID, message string) error
	LatestByDocument(ctx context.Context, docID primitive.ObjectID) (*models.ProcessingRun, error)
}

type pipelineProjects interface {
	Touch(ctx context.Context, projectID primitive.ObjectID) error
}

type textCompleter interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Result, error)
}

type intentDetector interface {
	Classify(ctx context.Context, text string) string
}

type templateResolver interface {
	ResolveTemplate(ctx context.Context, slug string) (string, *primitive.ObjectID)
}

type rosterSource interface {
	ListRoster(ctx context.Context, projectID primitive.ObjectID) ([]models.RosterEntry, error)
}

type usageRecorder interface {
	Record(ctx context.Context, usage *models.LLMUsage) error
}

type activityRecorder interface {
	Record(entry models.ActivityEntry)
}

type enqueuer interface {
	Enqueue(ctx context.Context, documentID string) error
}

// PipelineService runs the multi-stage summarization pipeline for one source
// document at a time: claim the run, fetch and extract, infer the content
// date, truncate, pick and build the prompt, call the model, store the
// artifact. Transient failures get one automatic retry; everything else fails
// the run with a bounded error message.
type PipelineService struct {
	documents pipelineDocuments
	summaries pipelineSummaries
	runs      pipelineRuns
	projects  pipelineProjects
	blobs     blob.Store
	completer textCompleter
	intents   intentDetector
	templates templateResolver
	roster    rosterSource
	usage     usageRecorder
	activity  activityRecorder
	queue     enqueuer
	providers *config.ProviderRegistry
	metrics   *Metrics

	maxRetries int
	runTimeout time.Duration
}

// NewPipelineService wires the pipeline against the real stores
func NewPipelineService(
	documents *DocumentStore,
	summaries *SummaryStore,
	runs *RunStore,
	projects *ProjectStore,
	blobs blob.Store,
	completer *llm.Client,
	intents *llm.IntentClassifier,
	templates *TemplateResolver,
	roster *PersonStore,
	usage *UsageStore,
	activity *ActivityService,
	queue *QueueService,
	providers *config.ProviderRegistry,
	metrics *Metrics,
	cfg *config.Config,
) *PipelineService {
	return &PipelineService{
		documents:  documents,
		summaries:  summaries,
		runs:       runs,
		projects:   projects,
		blobs:      blobs,
		completer:  completer,
		intents:    intents,
		templates:  templates,
		roster:     roster,
		usage:      usage,
		activity:   activity,
		queue:      queue,
		providers:  providers,
		metrics:    metrics,
		maxRetries: cfg.MaxRetries,
		runTimeout: cfg.RunTimeout,
	}
}

type pipelineResult struct {
	content     string
	model       string
	inputTokens int
	truncated   bool
	templateID  *primitive.ObjectID
}

// Enqueue creates the queued summary shell plus a processing run and hands
// the document to the worker pool.
func (s *PipelineService) Enqueue(ctx context.Context, doc *models.SourceDocument) error {
	summary := &models.Summary{
		SourceDocumentID: doc.ID,
		ProjectID:        doc.ProjectID,
		ProcessingStatus: models.StatusQueued,
	}
	if err := s.summaries.Create(ctx, summary); err != nil {
		return err
	}

	run := &models.ProcessingRun{
		SourceDocumentID: doc.ID,
		ProjectID:        doc.ProjectID,
		Status:           models.StatusQueued,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return err
	}

	return s.queue.Enqueue(ctx, doc.ID.Hex())
}

// Reprocess resets a terminal summary back to queued, opens a fresh run, and
// re-enqueues the document. Returns ErrStatusConflict while a run is active.
func (s *PipelineService) Reprocess(ctx context.Context, doc *models.SourceDocument) error {
	summary, err := s.summaries.GetByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}

	if err := s.summaries.ResetForReprocess(ctx, summary.ID); err != nil {
		return err
	}

	run := &models.ProcessingRun{
		SourceDocumentID: doc.ID,
		ProjectID:        doc.ProjectID,
		Status:           models.StatusQueued,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return err
	}

	s.activity.Record(models.ActivityEntry{
		ProjectID:        doc.ProjectID,
		Action:           models.ActionDocumentReprocessed,
		SourceDocumentID: &doc.ID,
		Metadata:         map[string]interface{}{"filename": doc.Filename},
	})

	return s.queue.Enqueue(ctx, doc.ID.Hex())
}

// Process runs the pipeline for one queued document. Pipeline failures are
// recorded on the summary and run, not returned; only infrastructure errors
// that prevent recording anything at all propagate.
func (s *PipelineService) Process(ctx context.Context, documentID string) error {
	docID, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return fmt.Errorf("invalid document id %q: %w", documentID, err)
	}

	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	doc, err := s.documents.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Deleted while queued
			slog.Info("skipping pipeline for deleted document", "document_id", documentID)
			return nil
		}
		return err
	}

	summary, err := s.summaries.GetByDocument(ctx, docID)
	if err != nil {
		return err
	}

	if err := s.summaries.MarkProcessing(ctx, summary.ID); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// Another worker already owns this run
			return nil
		}
		return err
	}

	var runID primitive.ObjectID
	if run, err := s.runs.LatestByDocument(ctx, docID); err == nil {
		runID = run.ID
		if err := s.runs.MarkProcessing(ctx, runID); err != nil && !errors.Is(err, ErrStatusConflict) {
			slog.Warn("failed to mark run processing", "run_id", runID.Hex(), "error", err)
		}
	}

	logger := logging.WithRun(runID.Hex(), docID.Hex(), doc.ProjectID.Hex())
	logger.Info("pipeline started", "filename", doc.Filename, "file_type", doc.FileType)

	if s.metrics != nil {
		s.metrics.RecordRunStarted()
	}
	start := time.Now()

	var result *pipelineResult
	var stage string
	attempts := 0
	for {
		attempts++
		result, stage, err = s.attempt(ctx, doc, logger)
		if err == nil || !isTransient(err) || attempts > s.maxRetries {
			break
		}
		logger.Warn("transient pipeline failure, retrying", "stage", stage, "attempt", attempts, "error", err)
	}

	if err != nil {
		s.failRun(ctx, doc, summary.ID, runID, stage, err, logger)
		return nil
	}

	blobPath := fmt.Sprintf("projects/%s/summaries/%s.md", doc.ProjectID.Hex(), doc.ID.Hex())
	blobURL, err := s.blobs.Put(ctx, blobPath, []byte(result.content), "text/markdown")
	if err != nil {
		s.failRun(ctx, doc, summary.ID, runID, "store", fmt.Errorf("failed to store summary blob: %w", err), logger)
		return nil
	}

	if err := s.summaries.Complete(ctx, summary.ID, result.content, blobURL, result.model, result.inputTokens, result.truncated, result.templateID); err != nil {
		logger.Error("failed to complete summary", "error", err)
		return err
	}
	if !runID.IsZero() {
		if err := s.runs.Complete(ctx, runID); err != nil {
			logger.Warn("failed to complete run", "error", err)
		}
	}
	if err := s.projects.Touch(ctx, doc.ProjectID); err != nil {
		logger.Warn("failed to touch project", "error", err)
	}

	s.activity.Record(models.ActivityEntry{
		ProjectID:        doc.ProjectID,
		Action:           models.ActionSummaryCompleted,
		SourceDocumentID: &doc.ID,
		Metadata:         map[string]interface{}{"filename": doc.Filename},
	})

	if s.metrics != nil {
		s.metrics.RecordRunCompleted(time.Since(start).Seconds())
	}
	logger.Info("pipeline completed", "filename", doc.Filename, "model", result.model, "truncated", result.truncated)
	return nil
}

// attempt runs the pipeline stages once. The returned stage names where a
// failure happened for metrics and diagnostics.
func (s *PipelineService) attempt(ctx context.Context, doc *models.SourceDocument, logger *slog.Logger) (*pipelineResult, string, error) {
	data, err := s.blobs.Get(ctx, doc.BlobURL)
	if err != nil {
		return nil, "fetch", markTransient(fmt.Errorf("failed to fetch source blob: %w", err))
	}

	text, err := extract.Text(data, doc.FileType)
	if err != nil {
		return nil, "extract", fmt.Errorf("text extraction failed: %w", err)
	}
	logger.Info("text extracted", "chars", len(text))

	// A manual override always wins over inference
	if doc.ContentDateSource != models.DateSourceManual {
		if inferred := contentdate.Infer(data, doc.FileType, doc.Filename); inferred != nil {
			if err := s.documents.SetExtractedContentDate(ctx, doc.ID, *inferred); err != nil {
				logger.Warn("failed to store extracted content date", "error", err)
			} else {
				logger.Info("content date extracted", "content_date", inferred.Format("2006-01-02"))
			}
		} else if err := s.documents.SetFallbackContentDate(ctx, doc.ID, doc.UploadedAt); err != nil {
			logger.Warn("failed to store fallback content date", "error", err)
		}
	}

	trunc := llm.Truncate(text)
	if trunc.Truncated {
		logger.Warn("document truncated before summarization", "percent_covered", trunc.PercentCovered)
		if s.metrics != nil {
			s.metrics.RecordTruncation()
		}
	}

	slug := s.selectSlug(ctx, doc, text, logger)
	templateContent, templateID := s.templates.ResolveTemplate(ctx, slug)

	peopleBlock := ""
	if roster, err := s.roster.ListRoster(ctx, doc.ProjectID); err != nil {
		logger.Warn("failed to load project roster", "error", err)
	} else {
		peopleBlock = prompts.FormatRoster(roster)
	}

	prompt := prompts.Build(templateContent, doc.Filename, doc.FileType, trunc.Text, peopleBlock)
	logger.Info("prompt built", "slug", slug, "prompt_chars", len(prompt))

	callStart := time.Now()
	completion, err := s.completer.Complete(ctx, llm.Request{
		Model:     s.providers.Current().SummaryModel,
		Prompt:    prompt,
		MaxTokens: summaryMaxTokens,
	})
	if err != nil {
		return nil, "invoke", markTransient(fmt.Errorf("summarization call failed: %w", err))
	}
	durationMS := time.Since(callStart).Milliseconds()

	logger.Info("model responded",
		"model", completion.Model,
		"input_tokens", completion.InputTokens,
		"output_tokens", completion.OutputTokens,
		"duration_ms", durationMS)

	if err := s.usage.Record(ctx, &models.LLMUsage{
		ProjectID:        doc.ProjectID,
		SourceDocumentID: &doc.ID,
		Model:            completion.Model,
		InputTokens:      completion.InputTokens,
		OutputTokens:     completion.OutputTokens,
		DurationMS:       durationMS,
	}); err != nil {
		return nil, "usage", fmt.Errorf("failed to record LLM usage: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordLLMTokens(completion.Model, completion.InputTokens, completion.OutputTokens)
	}

	content := completion.Text
	if trunc.Truncated {
		content = fmt.Sprintf("> Note: The source document was truncated to fit processing limits. This summary covers approximately the first %d%% of the document.\n\n%s",
			trunc.PercentCovered, content)
	}

	return &pipelineResult{
		content:     content,
		model:       completion.Model,
		inputTokens: completion.InputTokens,
		truncated:   trunc.Truncated,
		templateID:  templateID,
	}, "", nil
}

// selectSlug maps the file type to a prompt template slug. Subtitle formats
// are always transcripts; plain text is ambiguous and gets classified;
// markdown and PDF default to general content.
func (s *PipelineService) selectSlug(ctx context.Context, doc *models.SourceDocument, text string, logger *slog.Logger) string {
	switch doc.FileType {
	case models.FormatWebVTT, models.FormatSRT:
		return models.SlugMeetingTranscript
	case models.FormatPlainText:
		intent := s.intents.Classify(ctx, text)
		logger.Info("intent detected", "intent", intent)
		if intent == llm.IntentTranscript {
			return models.SlugMeetingTranscript
		}
		return models.SlugGeneralContent
	default:
		return models.SlugGeneralContent
	}
}

func (s *PipelineService) failRun(ctx context.Context, doc *models.SourceDocument, summaryID, runID primitive.ObjectID, stage string, cause error, logger *slog.Logger) {
	logger.Error("pipeline failed", "stage", stage, "error", cause)

	if err := s.summaries.Fail(ctx, summaryID, cause.Error()); err != nil {
		logger.Error("failed to record summary failure", "error", err)
	}
	if !runID.IsZero() {
		if err := s.runs.Fail(ctx, runID, cause.Error()); err != nil {
			logger.Warn("failed to record run failure", "error", err)
		}
	}

	s.activity.Record(models.ActivityEntry{
		ProjectID:        doc.ProjectID,
		Action:           models.ActionSummaryFailed,
		SourceDocumentID: &doc.ID,
		Metadata: map[string]interface{}{
			"filename": doc.Filename,
			"stage":    stage,
		},
	})

	if s.metrics != nil {
		s.metrics.RecordRunFailed(stage)
	}
}
