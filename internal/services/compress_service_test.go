package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"briefbase/internal/config"
	"briefbase/internal/llm"
	"briefbase/internal/models"
	"briefbase/internal/prompts"
)

type fakeLocker struct {
	held map[string]bool
}

func (f *fakeLocker) AcquireCompressLock(ctx context.Context, projectID string) (bool, error) {
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[projectID] {
		return false, nil
	}
	f.held[projectID] = true
	return true, nil
}

func (f *fakeLocker) ReleaseCompressLock(ctx context.Context, projectID string) {
	delete(f.held, projectID)
}

type compressFixture struct {
	documents *memDocuments
	summaries *memSummaries
	projects  *memProjects
	locker    *fakeLocker
	completer *fakeCompleter
	usage     *memUsage
	activity  *memActivity
	service   *CompressService
	project   *models.Project
}

func newCompressFixture(t *testing.T, category string, completer *fakeCompleter) *compressFixture {
	t.Helper()

	styles, err := prompts.LoadStyles()
	if err != nil {
		t.Fatalf("failed to load styles: %v", err)
	}

	f := &compressFixture{
		documents: newMemDocuments(),
		summaries: newMemSummaries(),
		projects:  newMemProjects(),
		locker:    &fakeLocker{},
		completer: completer,
		usage:     &memUsage{},
		activity:  &memActivity{},
	}

	f.project = &models.Project{Name: "Test Project", Category: category}
	f.projects.add(f.project)

	registry := config.NewProviderRegistry(&config.Providers{
		BaseURL:          "http://localhost:1234/v1",
		SummaryModel:     "summary-model",
		CompressionModel: "compress-model",
	})

	f.service = &CompressService{
		summaries: f.summaries,
		documents: f.documents,
		projects:  f.projects,
		locker:    f.locker,
		completer: f.completer,
		usage:     f.usage,
		activity:  f.activity,
		providers: registry,
		styles:    styles,
		resolve: func(ctx context.Context, slug string) string {
			return prompts.Builtin(slug)
		},
	}
	return f
}

// seedSummary registers a complete summary whose document carries the given
// content date.
func (f *compressFixture) seedSummary(t *testing.T, filename string, contentDate time.Time, content string) {
	t.Helper()

	doc := &models.SourceDocument{
		ProjectID:         f.project.ID,
		Filename:          filename,
		FileType:          models.FormatPlainText,
		UploadedAt:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ContentDate:       &contentDate,
		ContentDateSource: models.DateSourceExtracted,
	}
	f.documents.add(doc)

	summary := &models.Summary{
		SourceDocumentID: doc.ID,
		ProjectID:        f.project.ID,
		ProcessingStatus: models.StatusComplete,
		Content:          content,
	}
	if err := f.summaries.Create(context.Background(), summary); err != nil {
		t.Fatalf("failed to seed summary: %v", err)
	}
}

func TestCompressOrdersSummariesOldestFirst(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		return &llm.Result{Text: "# Knowledge Base\n\nEverything.", Model: "compress-model", InputTokens: 4000, OutputTokens: 900}, nil
	}}
	f := newCompressFixture(t, models.ProjectCategoryGeneral, completer)

	// Seeded out of order on purpose
	f.seedSummary(t, "mid-january.txt", time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC), "Mid January notes")
	f.seedSummary(t, "february.txt", time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC), "February notes")
	f.seedSummary(t, "new-year.txt", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), "New year notes")

	if err := f.service.Compress(context.Background(), f.project.ID, 1000); err != nil {
		t.Fatalf("Compress returned error: %v", err)
	}

	prompt := completer.requests[0].Prompt
	first := strings.Index(prompt, "## new-year.txt")
	second := strings.Index(prompt, "## mid-january.txt")
	third := strings.Index(prompt, "## february.txt")
	if first == -1 || second == -1 || third == -1 {
		t.Fatalf("Expected all three section headers, got:\n%s", prompt)
	}
	if !(first < second && second < third) {
		t.Errorf("Expected oldest-first ordering, got positions %d %d %d", first, second, third)
	}

	if !strings.Contains(prompt, "_Content date: 2025-01-01 (extracted)_") {
		t.Error("Expected dated section metadata line")
	}
	if strings.Count(prompt, "\n\n---\n\n") != 2 {
		t.Errorf("Expected 2 section separators, got %d", strings.Count(prompt, "\n\n---\n\n"))
	}
	if !strings.Contains(prompt, "approximately 1000 tokens") {
		t.Error("Expected target token count in prompt")
	}

	if completer.requests[0].System != prompts.KBCompressionTemplate {
		t.Error("Expected default compression system prompt for general category")
	}
	if completer.requests[0].MaxTokens != 2000 {
		t.Errorf("Expected max_tokens 2×target, got %d", completer.requests[0].MaxTokens)
	}

	project, _ := f.projects.GetByID(context.Background(), f.project.ID)
	if project.CompressedKB != "# Knowledge Base\n\nEverything." {
		t.Errorf("Unexpected stored KB: %q", project.CompressedKB)
	}
	if project.CompressedKBTokens != 900 {
		t.Errorf("Expected output token count stored, got %d", project.CompressedKBTokens)
	}
	if len(f.usage.records) != 1 {
		t.Errorf("Expected 1 usage record, got %d", len(f.usage.records))
	}
	actions := f.activity.actions()
	if len(actions) != 1 || actions[0] != models.ActionKBCompressed {
		t.Errorf("Unexpected activity: %v", actions)
	}
}

func TestCompressMaxTokensCapped(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		return &llm.Result{Text: "kb", Model: "m"}, nil
	}}
	f := newCompressFixture(t, models.ProjectCategoryGeneral, completer)
	f.seedSummary(t, "a.txt", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "notes")

	if err := f.service.Compress(context.Background(), f.project.ID, 20_000); err != nil {
		t.Fatalf("Compress returned error: %v", err)
	}
	if completer.requests[0].MaxTokens != 8192 {
		t.Errorf("Expected max_tokens capped at 8192, got %d", completer.requests[0].MaxTokens)
	}
}

func TestCompressTargetBounds(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		t.Fatal("completer must not be called for invalid targets")
		return nil, nil
	}}
	f := newCompressFixture(t, models.ProjectCategoryGeneral, completer)

	for _, target := range []int{0, 99, 50_001} {
		if err := f.service.Compress(context.Background(), f.project.ID, target); err == nil {
			t.Errorf("Expected error for target %d", target)
		}
	}
}

func TestCompressNoSummaries(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		t.Fatal("completer must not be called with nothing to compress")
		return nil, nil
	}}
	f := newCompressFixture(t, models.ProjectCategoryGeneral, completer)

	if err := f.service.Compress(context.Background(), f.project.ID, 1000); !errors.Is(err, ErrNoSummaries) {
		t.Errorf("Expected ErrNoSummaries, got %v", err)
	}
}

func TestCompressLockConflict(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		return &llm.Result{Text: "kb", Model: "m"}, nil
	}}
	f := newCompressFixture(t, models.ProjectCategoryGeneral, completer)
	f.seedSummary(t, "a.txt", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "notes")

	f.locker.held = map[string]bool{f.project.ID.Hex(): true}

	if err := f.service.Compress(context.Background(), f.project.ID, 1000); !errors.Is(err, ErrCompressionInProgress) {
		t.Errorf("Expected ErrCompressionInProgress, got %v", err)
	}
}

func TestCompressFailureKeepsPreviousKB(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		return nil, fmt.Errorf("upstream down")
	}}
	f := newCompressFixture(t, models.ProjectCategoryGeneral, completer)
	f.seedSummary(t, "a.txt", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "notes")

	if err := f.projects.SetCompressedKB(context.Background(), f.project.ID, "previous kb", 100); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := f.service.Compress(context.Background(), f.project.ID, 1000); err == nil {
		t.Fatal("Expected error from failed compression")
	}

	project, _ := f.projects.GetByID(context.Background(), f.project.ID)
	if project.CompressedKB != "previous kb" {
		t.Errorf("Expected previous KB preserved, got %q", project.CompressedKB)
	}

	// Lock released after failure
	if f.locker.held[f.project.ID.Hex()] {
		t.Error("Expected lock released after failed compression")
	}
}

func TestCompressSalesCategoryUsesSalesStyle(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		return &llm.Result{Text: "kb", Model: "m"}, nil
	}}
	f := newCompressFixture(t, models.ProjectCategorySales, completer)
	f.seedSummary(t, "a.txt", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "notes")

	if err := f.service.Compress(context.Background(), f.project.ID, 1000); err != nil {
		t.Fatalf("Compress returned error: %v", err)
	}
	if completer.requests[0].System != prompts.KBCompressionSalesTemplate {
		t.Error("Expected sales compression system prompt for sales category")
	}
}

func TestCompressIncludesOrganizationalContext(t *testing.T) {
	completer := &fakeCompleter{fn: func(call int, req llm.Request) (*llm.Result, error) {
		return &llm.Result{Text: "kb", Model: "m"}, nil
	}}
	f := newCompressFixture(t, models.ProjectCategoryGeneral, completer)
	f.seedSummary(t, "a.txt", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "notes")

	f.projects.mu.Lock()
	f.projects.projects[f.project.ID].CompanyContext = "Acme builds rockets."
	f.projects.projects[f.project.ID].BusinessUnitContext = "Propulsion division."
	f.projects.mu.Unlock()

	if err := f.service.Compress(context.Background(), f.project.ID, 1000); err != nil {
		t.Fatalf("Compress returned error: %v", err)
	}

	prompt := completer.requests[0].Prompt
	if !strings.Contains(prompt, "COMPANY CONTEXT:\nAcme builds rockets.") {
		t.Error("Expected company context in prompt")
	}
	if !strings.Contains(prompt, "BUSINESS UNIT CONTEXT:\nPropulsion division.") {
		t.Error("Expected business unit context in prompt")
	}
	if strings.Index(prompt, "COMPANY CONTEXT") > strings.Index(prompt, "## a.txt") {
		t.Error("Expected organizational context before the summary sections")
	}
}
