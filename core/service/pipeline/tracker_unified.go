package pipeline

import (
	"context"

	"github.com/goccy/go-json"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
	"jobtrack_server/pkg/logger"
)

// UnifiedProcessor runs classification, content analysis and structuring as a
// single LLM call. This is the default path; the staged pipeline remains for
// models that cannot hold the combined prompt.
type UnifiedProcessor struct {
	llm       out.LLMProcessor
	suggester out.CapacitySuggester
	stats     ProcessorStats
	log       *logger.Logger
}

var _ Processor = (*UnifiedProcessor)(nil)

// UnifiedOption configures a UnifiedProcessor.
type UnifiedOption func(*UnifiedProcessor)

// WithUnifiedCapacitySuggester enables smart-batch chunk sizing.
func WithUnifiedCapacitySuggester(s out.CapacitySuggester) UnifiedOption {
	return func(p *UnifiedProcessor) { p.suggester = s }
}

// NewUnifiedProcessor creates a unified processor.
func NewUnifiedProcessor(llm out.LLMProcessor, opts ...UnifiedOption) *UnifiedProcessor {
	p := &UnifiedProcessor{
		llm: llm,
		log: logger.Default().WithField("component", "unified_processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats returns a copy of the running counters.
func (p *UnifiedProcessor) Stats() ProcessorStats {
	return p.stats
}

// Process runs one email through the single-call path.
func (p *UnifiedProcessor) Process(ctx context.Context, email *domain.RawEmail) *domain.ProcessingResult {
	return p.ProcessEmail(ctx, email)
}

// ProcessBatch processes emails sequentially with per-item isolation.
func (p *UnifiedProcessor) ProcessBatch(ctx context.Context, emails []*domain.RawEmail) []*domain.ProcessingResult {
	return runBatch(ctx, emails, p.log, p.Process)
}

// ProcessBatchSmart chunks the batch by the capacity suggester and resets
// token counters between chunks.
func (p *UnifiedProcessor) ProcessBatchSmart(ctx context.Context, emails []*domain.RawEmail) []*domain.ProcessingResult {
	return runBatchSmart(ctx, emails, p.suggester, p.log, p.Process,
		func(int) { p.stats.ResetUsage() })
}

// =============================================================================
// Unified response schema
// =============================================================================

// The model may omit any field; every struct below decodes to a usable zero
// value, and pointer members distinguish "absent sub-object" from "empty".

type unifiedClassification struct {
	IsJobRelated *bool   `json:"is_job_related"` // missing defaults to false, conservative
	EmailType    string  `json:"email_type"`
	Company      string  `json:"company"`
	Position     string  `json:"position"`
	Urgency      string  `json:"urgency"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

type unifiedJob struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	Salary         string `json:"salary"`
	EmploymentType string `json:"employment_type"`
	ApplyLink      string `json:"apply_link"`
	JobBoard       string `json:"job_board"`
}

type unifiedJobExtractions struct {
	IsJobBoard bool         `json:"is_job_board"`
	Jobs       []unifiedJob `json:"jobs"`
}

type unifiedContentAnalysis struct {
	ActionableSummary string   `json:"actionable_summary"`
	KeyInsights       []string `json:"key_insights"`
	NextSteps         []string `json:"next_steps"`
	Sentiment         string   `json:"sentiment"`
	RequiresResponse  bool     `json:"requires_response"`
	DeadlineMentioned string   `json:"deadline_mentioned"`
}

type unifiedLinks struct {
	Calendar   string `json:"calendar"`
	Assessment string `json:"assessment"`
	Portal     string `json:"portal"`
	Other      string `json:"other"`
}

type unifiedContactInfo struct {
	RecruiterName    string   `json:"recruiter_name"`
	RecruiterEmail   string   `json:"recruiter_email"`
	InterviewerNames []string `json:"interviewer_names"`
}

type unifiedStructuredData struct {
	InterviewDate      string                    `json:"interview_date"`
	InterviewTime      string                    `json:"interview_time"`
	InterviewPlatform  string                    `json:"interview_platform"`
	InterviewDuration  string                    `json:"interview_duration"`
	AssessmentDeadline string                    `json:"assessment_deadline"`
	ResponseDeadline   string                    `json:"response_deadline"`
	AssessmentType     string                    `json:"assessment_type"`
	Location           string                    `json:"location"`
	SalaryMentioned    bool                      `json:"salary_mentioned"`
	SalaryRange        string                    `json:"salary_range"`
	ExtractedLinks     *unifiedLinks             `json:"extracted_links"`
	ActionItems        []domain.ActionItemDetail `json:"action_items"`
	KeyInfo            []domain.KeyInfo          `json:"key_info"`
	ContactInfo        *unifiedContactInfo       `json:"contact_info"`
}

type unifiedPayload struct {
	Classification  *unifiedClassification  `json:"classification"`
	JobExtractions  *unifiedJobExtractions  `json:"job_extractions"`
	ContentAnalysis *unifiedContentAnalysis `json:"content_analysis"`
	StructuredData  *unifiedStructuredData  `json:"structured_data"`
}

// =============================================================================
// Processing
// =============================================================================

// ProcessEmail runs one email through the single-call path. API failures and
// malformed JSON become a failed result with zeroed usage and conservative
// defaults; this method never returns an error.
func (p *UnifiedProcessor) ProcessEmail(ctx context.Context, email *domain.RawEmail) *domain.ProcessingResult {
	res := p.processEmail(ctx, email)
	p.stats = mergeStats(p.stats, res)
	return res
}

func (p *UnifiedProcessor) processEmail(ctx context.Context, email *domain.RawEmail) *domain.ProcessingResult {
	res := domain.NewProcessingResult(*email)

	if err := email.Validate(); err != nil {
		res.MarkFailed("invalid input: " + err.Error())
		return res
	}

	completion, err := p.llm.CompleteUnified(ctx, email)
	if err != nil {
		p.log.WithError(err).Warn("unified call failed for %s", email.GmailMessageID)
		res.Classification = errorClassification()
		res.MarkFailed("unified processing failed: " + err.Error())
		return res
	}

	var payload unifiedPayload
	if err := json.Unmarshal(completion.Payload, &payload); err != nil {
		p.log.WithError(err).Warn("malformed unified payload for %s", email.GmailMessageID)
		res.Classification = errorClassification()
		res.MarkFailed("malformed unified response: " + err.Error())
		return res
	}

	cls := buildClassification(payload.Classification)
	cls.TokensUsed = completion.TokensUsed
	cls.ProcessingTimeMs = completion.ProcessingTimeMs
	cls.ModelUsed = completion.Model
	res.ApplyClassification(cls)

	// Job postings leave the email path here: they are attached only for
	// job-board digests, regardless of anything else in the payload.
	if payload.JobExtractions != nil && payload.JobExtractions.IsJobBoard {
		res.ExtractedJobs = buildJobs(payload.JobExtractions.Jobs)
	}

	if cls.IsJobRelated {
		if ext := buildContentExtraction(payload.ContentAnalysis, cls); ext != nil {
			res.ApplyContentExtraction(ext)
		}
		if structured := buildStructuredData(payload.StructuredData); structured != nil {
			res.ApplyStructuredData(structured)
		}
	}

	res.Finalize()
	return res
}

// errorClassification is the conservative placeholder applied when the call
// itself failed: type other, normal urgency, zero usage.
func errorClassification() *domain.ClassificationResult {
	return &domain.ClassificationResult{
		EmailType: domain.EmailTypeOther,
		Urgency:   domain.UrgencyNormal,
	}
}

func buildClassification(c *unifiedClassification) *domain.ClassificationResult {
	if c == nil {
		return errorClassification()
	}
	isJobRelated := false
	if c.IsJobRelated != nil {
		isJobRelated = *c.IsJobRelated
	}
	return &domain.ClassificationResult{
		IsJobRelated:     isJobRelated,
		EmailType:        domain.ParseEmailType(c.EmailType),
		Confidence:       clamp01(c.Confidence),
		Urgency:          domain.ParseUrgency(c.Urgency),
		CompanyDetected:  c.Company,
		PositionDetected: c.Position,
		Reasoning:        c.Reasoning,
	}
}

func buildJobs(jobs []unifiedJob) []domain.RawJob {
	out := make([]domain.RawJob, 0, len(jobs))
	for _, j := range jobs {
		if j.Title == "" && j.Company == "" {
			continue
		}
		out = append(out, domain.RawJob{
			Title:          j.Title,
			Company:        j.Company,
			Location:       j.Location,
			Salary:         j.Salary,
			EmploymentType: j.EmploymentType,
			ApplyLink:      j.ApplyLink,
			JobBoard:       j.JobBoard,
		})
	}
	return out
}

func buildContentExtraction(c *unifiedContentAnalysis, cls *domain.ClassificationResult) *domain.ContentExtractionResult {
	if c == nil {
		return nil
	}
	return &domain.ContentExtractionResult{
		Company:           cls.CompanyDetected,
		Position:          cls.PositionDetected,
		ActionableSummary: c.ActionableSummary,
		KeyInsights:       emptyIfNil(c.KeyInsights),
		NextSteps:         emptyIfNil(c.NextSteps),
		Sentiment:         domain.ParseSentiment(c.Sentiment),
		RequiresResponse:  c.RequiresResponse,
		DeadlineMentioned: c.DeadlineMentioned,
		Confidence:        cls.Confidence,
	}
}

func buildStructuredData(s *unifiedStructuredData) *domain.StructuredDataResult {
	if s == nil {
		return nil
	}
	links := map[string]string{}
	if s.ExtractedLinks != nil {
		for key, val := range map[string]string{
			"calendar":   s.ExtractedLinks.Calendar,
			"assessment": s.ExtractedLinks.Assessment,
			"portal":     s.ExtractedLinks.Portal,
			"other":      s.ExtractedLinks.Other,
		} {
			if val != "" {
				links[key] = val
			}
		}
	}
	result := &domain.StructuredDataResult{
		KeyInfo:            s.KeyInfo,
		ActionItems:        s.ActionItems,
		ExtractedLinks:     links,
		InterviewDate:      s.InterviewDate,
		InterviewTime:      s.InterviewTime,
		InterviewPlatform:  s.InterviewPlatform,
		InterviewDuration:  s.InterviewDuration,
		AssessmentDeadline: s.AssessmentDeadline,
		ResponseDeadline:   s.ResponseDeadline,
		AssessmentType:     s.AssessmentType,
		SalaryRange:        s.SalaryRange,
		Location:           s.Location,
	}
	if s.ContactInfo != nil {
		result.ContactInfo = &domain.ContactDetails{
			RecruiterName:    s.ContactInfo.RecruiterName,
			RecruiterEmail:   s.ContactInfo.RecruiterEmail,
			InterviewerNames: emptyIfNil(s.ContactInfo.InterviewerNames),
		}
	}
	return result
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
