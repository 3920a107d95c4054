package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"briefbase/internal/config"
	"briefbase/internal/llm"
	"briefbase/internal/models"
	"briefbase/internal/prompts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Target token bounds for knowledge base compression.
const (
	MinCompressTargetTokens = 100
	MaxCompressTargetTokens = 50_000

	compressMaxTokensCap = 8192
)

type compressSummaries interface {
	ListCompleteByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Summary, error)
}

type compressDocuments interface {
	GetByIDs(ctx context.Context, docIDs []primitive.ObjectID) ([]models.SourceDocument, error)
}

type compressProjects interface {
	GetByID(ctx context.Context, projectID primitive.ObjectID) (*models.Project, error)
	SetCompressedKB(ctx context.Context, projectID primitive.ObjectID, content string, tokenCount int) error
}

type compressLocker interface {
	AcquireCompressLock(ctx context.Context, projectID string) (bool, error)
	ReleaseCompressLock(ctx context.Context, projectID string)
}

// CompressService synthesizes all complete summaries of a project into one
// compressed knowledge base document. One compression per project at a time;
// a failed compression leaves the previous knowledge base untouched.
type CompressService struct {
	summaries compressSummaries
	documents compressDocuments
	projects  compressProjects
	locker    compressLocker
	completer textCompleter
	usage     usageRecorder
	activity  activityRecorder
	providers *config.ProviderRegistry
	metrics   *Metrics

	styles  []prompts.CompressionStyle
	resolve func(ctx context.Context, slug string) string
	timeout time.Duration
}

// NewCompressService wires compression against the real stores
func NewCompressService(
	summaries *SummaryStore,
	documents *DocumentStore,
	projects *ProjectStore,
	locker *QueueService,
	completer *llm.Client,
	templates *TemplateResolver,
	usage *UsageStore,
	activity *ActivityService,
	providers *config.ProviderRegistry,
	metrics *Metrics,
	cfg *config.Config,
) (*CompressService, error) {
	styles, err := prompts.LoadStyles()
	if err != nil {
		return nil, err
	}

	return &CompressService{
		summaries: summaries,
		documents: documents,
		projects:  projects,
		locker:    locker,
		completer: completer,
		usage:     usage,
		activity:  activity,
		providers: providers,
		metrics:   metrics,
		styles:    styles,
		resolve:   templates.ResolveStyle,
		timeout:   cfg.CompressTimeout,
	}, nil
}

// ErrNoSummaries is returned when a project has no complete summaries to
// compress.
var ErrNoSummaries = fmt.Errorf("no complete summaries to compress")

// Compress synthesizes the project knowledge base toward targetTokens.
func (s *CompressService) Compress(ctx context.Context, projectID primitive.ObjectID, targetTokens int) error {
	if targetTokens < MinCompressTargetTokens || targetTokens > MaxCompressTargetTokens {
		return fmt.Errorf("target tokens must be between %d and %d", MinCompressTargetTokens, MaxCompressTargetTokens)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	acquired, err := s.locker.AcquireCompressLock(ctx, projectID.Hex())
	if err != nil {
		return err
	}
	if !acquired {
		return ErrCompressionInProgress
	}
	defer s.locker.ReleaseCompressLock(context.WithoutCancel(ctx), projectID.Hex())

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	outcome := "failure"
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCompression(outcome, time.Since(start).Seconds())
		}
	}()

	userMessage, summaryCount, err := s.buildCompressionMessage(ctx, projectID, targetTokens)
	if err != nil {
		return err
	}

	style := prompts.StyleForCategory(s.styles, project.Category)
	systemPrompt := s.resolve(ctx, style.Slug)

	maxTokens := targetTokens * 2
	if maxTokens > compressMaxTokensCap {
		maxTokens = compressMaxTokensCap
	}

	callStart := time.Now()
	completion, err := s.completer.Complete(ctx, llm.Request{
		Model:     s.providers.Current().CompressionModel,
		System:    systemPrompt,
		Prompt:    userMessage,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return fmt.Errorf("compression call failed: %w", err)
	}
	durationMS := time.Since(callStart).Milliseconds()

	if err := s.usage.Record(ctx, &models.LLMUsage{
		ProjectID:    projectID,
		Model:        completion.Model,
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
		DurationMS:   durationMS,
	}); err != nil {
		return fmt.Errorf("failed to record LLM usage: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordLLMTokens(completion.Model, completion.InputTokens, completion.OutputTokens)
	}

	if err := s.projects.SetCompressedKB(ctx, projectID, completion.Text, completion.OutputTokens); err != nil {
		return err
	}

	s.activity.Record(models.ActivityEntry{
		ProjectID: projectID,
		Action:    models.ActionKBCompressed,
		Metadata: map[string]interface{}{
			"targetTokens": targetTokens,
			"outputTokens": completion.OutputTokens,
			"summaryCount": summaryCount,
			"style":        style.Name,
		},
	})

	outcome = "success"
	return nil
}

// buildCompressionMessage assembles the dated, oldest-first summary sections
// plus the project's organizational context.
func (s *CompressService) buildCompressionMessage(ctx context.Context, projectID primitive.ObjectID, targetTokens int) (string, int, error) {
	summaries, err := s.summaries.ListCompleteByProject(ctx, projectID)
	if err != nil {
		return "", 0, err
	}

	withContent := summaries[:0:0]
	docIDs := make([]primitive.ObjectID, 0, len(summaries))
	for _, sum := range summaries {
		if sum.Content == "" {
			continue
		}
		withContent = append(withContent, sum)
		docIDs = append(docIDs, sum.SourceDocumentID)
	}
	if len(withContent) == 0 {
		return "", 0, ErrNoSummaries
	}

	docs, err := s.documents.GetByIDs(ctx, docIDs)
	if err != nil {
		return "", 0, err
	}
	docByID := make(map[primitive.ObjectID]models.SourceDocument, len(docs))
	for _, d := range docs {
		docByID[d.ID] = d
	}

	// Oldest first by effective content date; stable so same-day documents
	// keep their summary creation order
	sort.SliceStable(withContent, func(i, j int) bool {
		di, dj := docByID[withContent[i].SourceDocumentID], docByID[withContent[j].SourceDocumentID]
		return di.EffectiveDate().Before(dj.EffectiveDate())
	})

	sections := make([]string, 0, len(withContent))
	for _, sum := range withContent {
		doc, ok := docByID[sum.SourceDocumentID]
		if !ok {
			continue
		}
		dateSource := doc.ContentDateSource
		if dateSource == "" {
			dateSource = models.DateSourceUploaded
		}
		sections = append(sections, fmt.Sprintf("## %s\n_Content date: %s (%s)_\n\n%s",
			doc.Filename, doc.EffectiveDate().UTC().Format("2006-01-02"), dateSource, sum.Content))
	}

	var b strings.Builder
	if project, err := s.projects.GetByID(ctx, projectID); err == nil {
		if project.CompanyContext != "" {
			fmt.Fprintf(&b, "COMPANY CONTEXT:\n%s\n\n", project.CompanyContext)
		}
		if project.BusinessUnitContext != "" {
			fmt.Fprintf(&b, "BUSINESS UNIT CONTEXT:\n%s\n\n", project.BusinessUnitContext)
		}
	}

	fmt.Fprintf(&b, "The following are document summaries from a project knowledge base, ordered from oldest to most recent. Please compress them into a single unified knowledge base document of approximately %d tokens.\n\n", targetTokens)
	b.WriteString(strings.Join(sections, "\n\n---\n\n"))

	return b.String(), len(withContent), nil
}
