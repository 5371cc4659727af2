package domain

import "time"

// ProcessingStage represents how far an email has advanced through the
// classification → extraction → structuring pipeline.
type ProcessingStage string

const (
	StageClassification    ProcessingStage = "classification"
	StageContentExtraction ProcessingStage = "content_extraction"
	StageDataStructuring   ProcessingStage = "data_structuring"
	StageCompleted         ProcessingStage = "completed"
)

// stageOrder is used to keep ProcessingStage monotonically advancing.
var stageOrder = map[ProcessingStage]int{
	StageClassification:    0,
	StageContentExtraction: 1,
	StageDataStructuring:   2,
	StageCompleted:         3,
}

// ClassificationResult is the output of the first (cheapest) LLM stage.
type ClassificationResult struct {
	IsJobRelated     bool      `json:"is_job_related"`
	EmailType        EmailType `json:"email_type"`
	Confidence       float64   `json:"confidence"`
	Urgency          Urgency   `json:"urgency"`
	CompanyDetected  string    `json:"company_detected"`
	PositionDetected string    `json:"position_detected"`
	Reasoning        string    `json:"reasoning,omitempty"`
	TokensUsed       int       `json:"tokens_used"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	ModelUsed        string    `json:"model_used"`
}

// ContentExtractionResult is produced only for job-related emails.
type ContentExtractionResult struct {
	Company           string    `json:"company"`
	Position          string    `json:"position"`
	ActionableSummary string    `json:"actionable_summary"`
	KeyInsights       []string  `json:"key_insights"`
	NextSteps         []string  `json:"next_steps"`
	Sentiment         Sentiment `json:"sentiment"`
	RequiresResponse  bool      `json:"requires_response"`
	DeadlineMentioned string    `json:"deadline_mentioned,omitempty"`
	Confidence        float64   `json:"confidence"`
	TokensUsed        int       `json:"tokens_used"`
	ProcessingTimeMs  int64     `json:"processing_time_ms"`
}

// KeyInfo is a labeled fact extracted from an email.
type KeyInfo struct {
	Label      string  `json:"label"`
	Value      string  `json:"value"`
	InfoType   string  `json:"info_type"` // deadline, date, link, salary, location, other
	Confidence float64 `json:"confidence"`
}

// ActionItemDetail is a concrete task the user should perform.
type ActionItemDetail struct {
	Task       string `json:"task"`
	Deadline   string `json:"deadline"` // raw string as written, "" when absent
	Priority   string `json:"priority"` // high, medium, low
	ActionType string `json:"action_type"`
}

// ContactDetails holds people mentioned in an email.
type ContactDetails struct {
	RecruiterName    string   `json:"recruiter_name"`
	RecruiterEmail   string   `json:"recruiter_email"`
	InterviewerNames []string `json:"interviewer_names"`
}

// StructuredDataResult is the output of the final structuring stage.
// String fields hold the raw text the LLM produced; date parsing is the
// dashboard aggregator's concern.
type StructuredDataResult struct {
	KeyInfo            []KeyInfo          `json:"key_info"`
	ActionItems        []ActionItemDetail `json:"action_items"`
	ExtractedLinks     map[string]string  `json:"extracted_links"`
	InterviewDate      string             `json:"interview_date"`
	InterviewTime      string             `json:"interview_time"`
	InterviewPlatform  string             `json:"interview_platform"`
	InterviewDuration  string             `json:"interview_duration"`
	AssessmentDeadline string             `json:"assessment_deadline"`
	ResponseDeadline   string             `json:"response_deadline"`
	AssessmentType     string             `json:"assessment_type"`
	SalaryRange        string             `json:"salary_range"`
	Location           string             `json:"location"`
	ContactInfo        *ContactDetails    `json:"contact_info,omitempty"`
	TokensUsed         int                `json:"tokens_used"`
	ProcessingTimeMs   int64              `json:"processing_time_ms"`
}

// ProcessingResult accumulates the outputs of every stage for one email.
// Merge policy: Company/Position/Urgency/Confidence always reflect the most
// specific stage that has run; confidence only ever increases. Token usage
// and timing are running sums, attributed as stages complete.
type ProcessingResult struct {
	Email RawEmail `json:"email"`

	Classification    *ClassificationResult    `json:"classification,omitempty"`
	ContentExtraction *ContentExtractionResult `json:"content_extraction,omitempty"`
	StructuredData    *StructuredDataResult    `json:"structured_data,omitempty"`

	// Job postings extracted from job-board digests. Populated only when
	// the LLM marked the email as a job board; never mixed into the
	// job-related-email dashboard path.
	ExtractedJobs []RawJob `json:"extracted_jobs,omitempty"`

	Company    string  `json:"company"`
	Position   string  `json:"position"`
	Urgency    Urgency `json:"urgency"`
	Confidence float64 `json:"confidence"`

	Stage        ProcessingStage `json:"processing_stage"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error_message,omitempty"`

	TotalTokens           int   `json:"total_tokens"`
	TotalProcessingTimeMs int64 `json:"total_processing_time_ms"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	terminal bool
}

// NewProcessingResult starts an accumulator for one email.
func NewProcessingResult(email RawEmail) *ProcessingResult {
	return &ProcessingResult{
		Email:     email,
		Urgency:   UrgencyNormal,
		Stage:     StageClassification,
		StartedAt: time.Now(),
	}
}

// advanceStage moves the stage forward, never backward.
func (r *ProcessingResult) advanceStage(s ProcessingStage) {
	if stageOrder[s] > stageOrder[r.Stage] {
		r.Stage = s
	}
}

// ApplyClassification records the classification stage output.
func (r *ProcessingResult) ApplyClassification(c *ClassificationResult) {
	if r.terminal || c == nil {
		return
	}
	r.Classification = c
	r.Company = c.CompanyDetected
	r.Position = c.PositionDetected
	r.Urgency = c.Urgency
	if c.Confidence > r.Confidence {
		r.Confidence = c.Confidence
	}
	r.TotalTokens += c.TokensUsed
	r.TotalProcessingTimeMs += c.ProcessingTimeMs
	r.advanceStage(StageContentExtraction)
}

// ApplyContentExtraction records the extraction stage output. Non-empty
// extraction values override the coarser classification guesses.
func (r *ProcessingResult) ApplyContentExtraction(c *ContentExtractionResult) {
	if r.terminal || c == nil {
		return
	}
	r.ContentExtraction = c
	if c.Company != "" {
		r.Company = c.Company
	}
	if c.Position != "" {
		r.Position = c.Position
	}
	if c.Confidence > r.Confidence {
		r.Confidence = c.Confidence
	}
	r.TotalTokens += c.TokensUsed
	r.TotalProcessingTimeMs += c.ProcessingTimeMs
	r.advanceStage(StageDataStructuring)
}

// ApplyStructuredData records the structuring stage output.
func (r *ProcessingResult) ApplyStructuredData(s *StructuredDataResult) {
	if r.terminal || s == nil {
		return
	}
	r.StructuredData = s
	r.TotalTokens += s.TokensUsed
	r.TotalProcessingTimeMs += s.ProcessingTimeMs
}

// MarkFailed terminates the result at the current stage. The result keeps
// whatever stage data was accumulated before the failure.
func (r *ProcessingResult) MarkFailed(errMsg string) {
	if r.terminal {
		return
	}
	r.Success = false
	r.ErrorMessage = errMsg
	r.FinishedAt = time.Now()
	r.terminal = true
}

// Finalize marks the result complete and terminal.
func (r *ProcessingResult) Finalize() {
	if r.terminal {
		return
	}
	r.Success = true
	r.Stage = StageCompleted
	r.FinishedAt = time.Now()
	r.terminal = true
}

// IsTerminal reports whether the result can no longer change.
func (r *ProcessingResult) IsTerminal() bool {
	return r.terminal
}

// IsJobRelated reports the classification verdict, false when the
// classification stage never produced one.
func (r *ProcessingResult) IsJobRelated() bool {
	return r.Classification != nil && r.Classification.IsJobRelated
}

// EmailType returns the classified type, EmailTypeOther before classification.
func (r *ProcessingResult) EmailType() EmailType {
	if r.Classification == nil {
		return EmailTypeOther
	}
	return r.Classification.EmailType
}
