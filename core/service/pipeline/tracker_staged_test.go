package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
)

// fakeLLM is a scripted LLMProcessor that counts calls per stage.
type fakeLLM struct {
	classifyCalls   int
	extractCalls    int
	structuredCalls int
	unifiedCalls    int

	classification *domain.ClassificationResult
	extraction     *domain.ContentExtractionResult
	structured     *domain.StructuredDataResult
	unified        *out.UnifiedCompletion

	classifyErr   error
	extractErr    error
	structuredErr error
	unifiedErr    error
}

func (f *fakeLLM) Classify(ctx context.Context, email *domain.RawEmail) (*domain.ClassificationResult, error) {
	f.classifyCalls++
	if f.classifyErr != nil {
		return nil, f.classifyErr
	}
	return f.classification, nil
}

func (f *fakeLLM) ExtractContent(ctx context.Context, email *domain.RawEmail, cls *domain.ClassificationResult) (*domain.ContentExtractionResult, error) {
	f.extractCalls++
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.extraction, nil
}

func (f *fakeLLM) ExtractStructured(ctx context.Context, email *domain.RawEmail, ext *domain.ContentExtractionResult) (*domain.StructuredDataResult, error) {
	f.structuredCalls++
	if f.structuredErr != nil {
		return nil, f.structuredErr
	}
	return f.structured, nil
}

func (f *fakeLLM) CompleteUnified(ctx context.Context, email *domain.RawEmail) (*out.UnifiedCompletion, error) {
	f.unifiedCalls++
	if f.unifiedErr != nil {
		return nil, f.unifiedErr
	}
	return f.unified, nil
}

func testEmail(id string) *domain.RawEmail {
	return &domain.RawEmail{
		GmailMessageID: id,
		Subject:        "Interview Invitation",
		Sender:         "recruiter@acme.com",
		Date:           time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Body:           "We would like to invite you to an interview.",
	}
}

func jobClassification() *domain.ClassificationResult {
	return &domain.ClassificationResult{
		IsJobRelated:     true,
		EmailType:        domain.EmailTypeInterview,
		Confidence:       0.9,
		Urgency:          domain.UrgencyHigh,
		CompanyDetected:  "Acme",
		PositionDetected: "Backend Engineer",
		TokensUsed:       100,
	}
}

func TestStagedProcessorFullPipeline(t *testing.T) {
	llm := &fakeLLM{
		classification: jobClassification(),
		extraction: &domain.ContentExtractionResult{
			Company:           "Acme Corp",
			Position:          "Backend Engineer",
			ActionableSummary: "Confirm the interview slot",
			Sentiment:         domain.SentimentPositive,
			Confidence:        0.95,
			TokensUsed:        200,
		},
		structured: &domain.StructuredDataResult{
			InterviewDate: "2025-06-19",
			InterviewTime: "1:30 PM",
			TokensUsed:    150,
		},
	}
	p := NewStagedProcessor(llm)

	res := p.Process(context.Background(), testEmail("msg-1"))

	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.ErrorMessage)
	}
	if res.Stage != domain.StageCompleted {
		t.Errorf("stage = %s, want %s", res.Stage, domain.StageCompleted)
	}
	if llm.classifyCalls != 1 || llm.extractCalls != 1 || llm.structuredCalls != 1 {
		t.Errorf("calls = %d/%d/%d, want 1/1/1",
			llm.classifyCalls, llm.extractCalls, llm.structuredCalls)
	}
	// Extraction's non-empty company overrides the classification guess.
	if res.Company != "Acme Corp" {
		t.Errorf("company = %q, want %q", res.Company, "Acme Corp")
	}
	// Confidence only increases across stages.
	if res.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", res.Confidence)
	}
	if res.TotalTokens != 450 {
		t.Errorf("total tokens = %d, want 450", res.TotalTokens)
	}
}

func TestStagedProcessorSkipsNonJobRelated(t *testing.T) {
	llm := &fakeLLM{
		classification: &domain.ClassificationResult{
			IsJobRelated: false,
			EmailType:    domain.EmailTypeOther,
			Confidence:   0.8,
			Urgency:      domain.UrgencyLow,
			TokensUsed:   80,
		},
	}
	p := NewStagedProcessor(llm)

	res := p.Process(context.Background(), testEmail("msg-2"))

	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.ErrorMessage)
	}
	if llm.extractCalls != 0 {
		t.Errorf("ExtractContent called %d times for unrelated mail, want 0", llm.extractCalls)
	}
	if llm.structuredCalls != 0 {
		t.Errorf("ExtractStructured called %d times for unrelated mail, want 0", llm.structuredCalls)
	}
	if res.TotalTokens != 80 {
		t.Errorf("total tokens = %d, want 80 (classification only)", res.TotalTokens)
	}
}

func TestStagedProcessorSkipDisabled(t *testing.T) {
	llm := &fakeLLM{
		classification: &domain.ClassificationResult{IsJobRelated: false},
	}
	p := NewStagedProcessor(llm, WithSkipNonJobRelated(false))

	res := p.Process(context.Background(), testEmail("msg-3"))

	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.ErrorMessage)
	}
	// Even with the short-circuit off, unrelated mail gets no paid second call.
	if llm.extractCalls != 0 {
		t.Errorf("ExtractContent called %d times, want 0", llm.extractCalls)
	}
}

func TestStagedProcessorClassificationFailure(t *testing.T) {
	llm := &fakeLLM{classifyErr: errors.New("rate limited")}
	p := NewStagedProcessor(llm)

	res := p.Process(context.Background(), testEmail("msg-4"))

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Stage != domain.StageClassification {
		t.Errorf("stage = %s, want %s", res.Stage, domain.StageClassification)
	}
	if llm.extractCalls != 0 {
		t.Errorf("ExtractContent called after classification failure")
	}
}

func TestStagedProcessorExtractionFailureKeepsClassification(t *testing.T) {
	llm := &fakeLLM{
		classification: jobClassification(),
		extractErr:     errors.New("timeout"),
	}
	p := NewStagedProcessor(llm)

	res := p.Process(context.Background(), testEmail("msg-5"))

	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Classification == nil {
		t.Fatal("classification data lost on extraction failure")
	}
	if res.Company != "Acme" {
		t.Errorf("company = %q, want classification value %q", res.Company, "Acme")
	}
	if !res.IsJobRelated() {
		t.Error("job-related verdict lost on extraction failure")
	}
}

func TestStagedProcessorInvalidInput(t *testing.T) {
	llm := &fakeLLM{classification: jobClassification()}
	p := NewStagedProcessor(llm)

	res := p.Process(context.Background(), &domain.RawEmail{GmailMessageID: ""})

	if res.Success {
		t.Fatal("expected failure for missing message id")
	}
	if llm.classifyCalls != 0 {
		t.Errorf("Classify called %d times for invalid input, want 0", llm.classifyCalls)
	}
}

func TestProcessBatchReturnsOneResultPerInput(t *testing.T) {
	llm := &fakeLLM{
		classification: &domain.ClassificationResult{IsJobRelated: false, TokensUsed: 10},
	}
	p := NewStagedProcessor(llm)

	emails := []*domain.RawEmail{
		testEmail("a"),
		{GmailMessageID: ""}, // invalid, must still yield a result
		testEmail("c"),
	}
	results := p.ProcessBatch(context.Background(), emails)

	if len(results) != len(emails) {
		t.Fatalf("got %d results for %d inputs", len(results), len(emails))
	}
	if results[1].Success {
		t.Error("invalid input reported success")
	}
	if !results[0].Success || !results[2].Success {
		t.Error("valid inputs failed")
	}
}

// fixedSuggester always proposes the same chunk size and records usage.
type fixedSuggester struct {
	size     int
	suggests int
	recorded []int
}

func (s *fixedSuggester) SuggestChunkSize(ctx context.Context, batchSize int) int {
	s.suggests++
	return s.size
}

func (s *fixedSuggester) RecordUsage(ctx context.Context, tokens int) {
	s.recorded = append(s.recorded, tokens)
}

func TestProcessBatchSmartChunks(t *testing.T) {
	llm := &fakeLLM{
		classification: &domain.ClassificationResult{IsJobRelated: false, TokensUsed: 10},
	}
	sug := &fixedSuggester{size: 2}
	p := NewStagedProcessor(llm, WithCapacitySuggester(sug))

	emails := make([]*domain.RawEmail, 5)
	for i := range emails {
		emails[i] = testEmail(string(rune('a' + i)))
	}
	results := p.ProcessBatchSmart(context.Background(), emails)

	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	// 5 items in chunks of 2 means 3 chunks.
	if sug.suggests != 3 {
		t.Errorf("suggester consulted %d times, want 3", sug.suggests)
	}
	if len(sug.recorded) != 3 {
		t.Fatalf("usage recorded %d times, want 3", len(sug.recorded))
	}
	if sug.recorded[0] != 20 || sug.recorded[1] != 20 || sug.recorded[2] != 10 {
		t.Errorf("recorded usage = %v, want [20 20 10]", sug.recorded)
	}
}

func TestProcessBatchSmartZeroSuggestionStillProgresses(t *testing.T) {
	llm := &fakeLLM{
		classification: &domain.ClassificationResult{IsJobRelated: false},
	}
	sug := &fixedSuggester{size: 0}
	p := NewStagedProcessor(llm, WithCapacitySuggester(sug))

	results := p.ProcessBatchSmart(context.Background(), []*domain.RawEmail{
		testEmail("a"), testEmail("b"),
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
}

func TestProcessorStatsCounters(t *testing.T) {
	llm := &fakeLLM{classification: jobClassification(),
		extraction: &domain.ContentExtractionResult{Confidence: 0.9},
		structured: &domain.StructuredDataResult{}}
	p := NewStagedProcessor(llm)

	p.Process(context.Background(), testEmail("a"))
	p.Process(context.Background(), &domain.RawEmail{GmailMessageID: ""})

	stats := p.Stats()
	if stats.TotalProcessed != 2 {
		t.Errorf("total = %d, want 2", stats.TotalProcessed)
	}
	if stats.Succeeded != 1 || stats.Failed != 1 {
		t.Errorf("succeeded/failed = %d/%d, want 1/1", stats.Succeeded, stats.Failed)
	}
	if stats.JobRelated != 1 {
		t.Errorf("job related = %d, want 1", stats.JobRelated)
	}
	if stats.SuccessRate() != 0.5 {
		t.Errorf("success rate = %v, want 0.5", stats.SuccessRate())
	}
	if stats.JobRelatedPercentage() != 50 {
		t.Errorf("job related pct = %v, want 50", stats.JobRelatedPercentage())
	}
}

func TestStatsResetUsageKeepsOutcomes(t *testing.T) {
	s := ProcessorStats{TotalProcessed: 4, Succeeded: 3, Failed: 1, TotalTokens: 900, AverageTokens: 225}
	s.ResetUsage()
	if s.TotalTokens != 0 || s.AverageTokens != 0 {
		t.Errorf("usage not cleared: tokens=%d avg=%v", s.TotalTokens, s.AverageTokens)
	}
	if s.TotalProcessed != 4 || s.Succeeded != 3 {
		t.Errorf("outcome counters changed: %+v", s)
	}
}
