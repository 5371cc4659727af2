package llm

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"jobtrack_server/core/domain"
	"jobtrack_server/pkg/apperr"
)

const bodyLimit = 4000

const classifySystemPrompt = `You are an email classifier for a job search tracking assistant.
Classify the email and respond with a JSON object:
{
  "is_job_related": boolean,
  "email_type": "interview" | "assessment" | "rejection" | "follow_up" | "offer" | "recruiter_outreach" | "job_board" | "other",
  "company": "company name or empty string",
  "position": "position title or empty string",
  "urgency": "high" | "normal" | "low",
  "confidence": number between 0 and 1,
  "reasoning": "one short sentence"
}
Newsletters, receipts and personal mail are not job related. Job board digest
emails (LinkedIn, Indeed, Glassdoor) are job related with type "job_board".`

const extractSystemPrompt = `You are an analyst for a job search tracking assistant.
The email is job related. Extract what matters and respond with a JSON object:
{
  "company": "company name",
  "position": "position title",
  "actionable_summary": "one or two sentences: what happened and what the candidate should do",
  "key_insights": ["short facts worth remembering"],
  "next_steps": ["concrete steps the candidate should take"],
  "sentiment": "positive" | "neutral" | "negative",
  "requires_response": boolean,
  "deadline_mentioned": "raw deadline text or empty string",
  "confidence": number between 0 and 1
}`

const structureSystemPrompt = `You are a data extractor for a job search tracking assistant.
Pull out every date, link, contact and task. Keep dates and times exactly as
written in the email. Respond with a JSON object:
{
  "key_info": [{"label": "...", "value": "...", "info_type": "deadline" | "date" | "link" | "salary" | "location" | "other", "confidence": 0.0}],
  "action_items": [{"task": "...", "deadline": "raw text or empty", "priority": "high" | "medium" | "low", "action_type": "respond" | "schedule" | "complete" | "review" | "other"}],
  "interview_date": "raw text or empty",
  "interview_time": "raw text or empty",
  "interview_platform": "raw text or empty",
  "interview_duration": "raw text or empty",
  "assessment_deadline": "raw text or empty",
  "response_deadline": "raw text or empty",
  "assessment_type": "raw text or empty",
  "salary_range": "raw text or empty",
  "location": "raw text or empty",
  "links": {"calendar": "", "assessment": "", "portal": "", "other": ""},
  "contact_info": {"recruiter_name": "", "recruiter_email": "", "interviewer_names": []}
}
Use empty strings for anything the email does not contain. Never invent values.`

func emailPrompt(email *domain.RawEmail) string {
	return fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n\n%s",
		email.Sender, email.Subject, email.Date.Format("2006-01-02 15:04"),
		truncateBody(email.Content(), bodyLimit))
}

// classifyPayload mirrors the classification prompt's JSON contract.
type classifyPayload struct {
	IsJobRelated bool    `json:"is_job_related"`
	EmailType    string  `json:"email_type"`
	Company      string  `json:"company"`
	Position     string  `json:"position"`
	Urgency      string  `json:"urgency"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// Classify runs the first-stage classification call.
func (c *Client) Classify(ctx context.Context, email *domain.RawEmail) (*domain.ClassificationResult, error) {
	comp, err := c.completeJSON(ctx, classifySystemPrompt, emailPrompt(email))
	if err != nil {
		return nil, apperr.LLMError("classify", err)
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(comp.content), &payload); err != nil {
		return nil, apperr.LLMError("classify: parse response", err)
	}

	return &domain.ClassificationResult{
		IsJobRelated:     payload.IsJobRelated,
		EmailType:        domain.ParseEmailType(payload.EmailType),
		Confidence:       payload.Confidence,
		Urgency:          domain.ParseUrgency(payload.Urgency),
		CompanyDetected:  payload.Company,
		PositionDetected: payload.Position,
		Reasoning:        payload.Reasoning,
		TokensUsed:       comp.totalTokens(),
		ProcessingTimeMs: comp.elapsed.Milliseconds(),
		ModelUsed:        c.model,
	}, nil
}

// extractPayload mirrors the extraction prompt's JSON contract.
type extractPayload struct {
	Company           string   `json:"company"`
	Position          string   `json:"position"`
	ActionableSummary string   `json:"actionable_summary"`
	KeyInsights       []string `json:"key_insights"`
	NextSteps         []string `json:"next_steps"`
	Sentiment         string   `json:"sentiment"`
	RequiresResponse  bool     `json:"requires_response"`
	DeadlineMentioned string   `json:"deadline_mentioned"`
	Confidence        float64  `json:"confidence"`
}

// ExtractContent runs the second-stage extraction call. The classification
// output is passed as context so the model does not re-derive company and
// position from scratch.
func (c *Client) ExtractContent(ctx context.Context, email *domain.RawEmail, cls *domain.ClassificationResult) (*domain.ContentExtractionResult, error) {
	prompt := emailPrompt(email)
	if cls != nil {
		prompt = fmt.Sprintf("Known so far: type=%s company=%q position=%q\n\n%s",
			cls.EmailType, cls.CompanyDetected, cls.PositionDetected, prompt)
	}

	comp, err := c.completeJSON(ctx, extractSystemPrompt, prompt)
	if err != nil {
		return nil, apperr.LLMError("extract content", err)
	}

	var payload extractPayload
	if err := json.Unmarshal([]byte(comp.content), &payload); err != nil {
		return nil, apperr.LLMError("extract content: parse response", err)
	}

	return &domain.ContentExtractionResult{
		Company:           payload.Company,
		Position:          payload.Position,
		ActionableSummary: payload.ActionableSummary,
		KeyInsights:       payload.KeyInsights,
		NextSteps:         payload.NextSteps,
		Sentiment:         domain.ParseSentiment(payload.Sentiment),
		RequiresResponse:  payload.RequiresResponse,
		DeadlineMentioned: payload.DeadlineMentioned,
		Confidence:        payload.Confidence,
		TokensUsed:        comp.totalTokens(),
		ProcessingTimeMs:  comp.elapsed.Milliseconds(),
	}, nil
}

// structurePayload mirrors the structuring prompt's JSON contract.
type structurePayload struct {
	KeyInfo []struct {
		Label      string  `json:"label"`
		Value      string  `json:"value"`
		InfoType   string  `json:"info_type"`
		Confidence float64 `json:"confidence"`
	} `json:"key_info"`
	ActionItems []struct {
		Task       string `json:"task"`
		Deadline   string `json:"deadline"`
		Priority   string `json:"priority"`
		ActionType string `json:"action_type"`
	} `json:"action_items"`
	InterviewDate      string            `json:"interview_date"`
	InterviewTime      string            `json:"interview_time"`
	InterviewPlatform  string            `json:"interview_platform"`
	InterviewDuration  string            `json:"interview_duration"`
	AssessmentDeadline string            `json:"assessment_deadline"`
	ResponseDeadline   string            `json:"response_deadline"`
	AssessmentType     string            `json:"assessment_type"`
	SalaryRange        string            `json:"salary_range"`
	Location           string            `json:"location"`
	Links              map[string]string `json:"links"`
	ContactInfo        *struct {
		RecruiterName    string   `json:"recruiter_name"`
		RecruiterEmail   string   `json:"recruiter_email"`
		InterviewerNames []string `json:"interviewer_names"`
	} `json:"contact_info"`
}

// ExtractStructured runs the final structuring call.
func (c *Client) ExtractStructured(ctx context.Context, email *domain.RawEmail, ext *domain.ContentExtractionResult) (*domain.StructuredDataResult, error) {
	prompt := emailPrompt(email)
	if ext != nil && ext.ActionableSummary != "" {
		prompt = fmt.Sprintf("Summary: %s\n\n%s", ext.ActionableSummary, prompt)
	}

	comp, err := c.completeJSON(ctx, structureSystemPrompt, prompt)
	if err != nil {
		return nil, apperr.LLMError("extract structured", err)
	}

	var payload structurePayload
	if err := json.Unmarshal([]byte(comp.content), &payload); err != nil {
		return nil, apperr.LLMError("extract structured: parse response", err)
	}

	result := &domain.StructuredDataResult{
		InterviewDate:      payload.InterviewDate,
		InterviewTime:      payload.InterviewTime,
		InterviewPlatform:  payload.InterviewPlatform,
		InterviewDuration:  payload.InterviewDuration,
		AssessmentDeadline: payload.AssessmentDeadline,
		ResponseDeadline:   payload.ResponseDeadline,
		AssessmentType:     payload.AssessmentType,
		SalaryRange:        payload.SalaryRange,
		Location:           payload.Location,
		TokensUsed:         comp.totalTokens(),
		ProcessingTimeMs:   comp.elapsed.Milliseconds(),
	}

	for _, ki := range payload.KeyInfo {
		result.KeyInfo = append(result.KeyInfo, domain.KeyInfo{
			Label:      ki.Label,
			Value:      ki.Value,
			InfoType:   ki.InfoType,
			Confidence: ki.Confidence,
		})
	}
	for _, ai := range payload.ActionItems {
		result.ActionItems = append(result.ActionItems, domain.ActionItemDetail{
			Task:       ai.Task,
			Deadline:   ai.Deadline,
			Priority:   ai.Priority,
			ActionType: ai.ActionType,
		})
	}

	links := make(map[string]string)
	for key, url := range payload.Links {
		if url != "" {
			links[key] = url
		}
	}
	if len(links) > 0 {
		result.ExtractedLinks = links
	}

	if payload.ContactInfo != nil {
		result.ContactInfo = &domain.ContactDetails{
			RecruiterName:    payload.ContactInfo.RecruiterName,
			RecruiterEmail:   payload.ContactInfo.RecruiterEmail,
			InterviewerNames: payload.ContactInfo.InterviewerNames,
		}
	}

	return result, nil
}
