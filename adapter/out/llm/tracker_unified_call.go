package llm

import (
	"context"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
	"jobtrack_server/pkg/apperr"
)

// unifiedSystemPrompt collapses classification, extraction and structuring
// into a single call. The response shape is fixed; the processor that
// consumes it applies defaults for anything the model leaves out.
const unifiedSystemPrompt = `You are a job search email analyst. Analyze the email fully in one pass
and respond with a single JSON object of this exact shape:
{
  "classification": {
    "is_job_related": boolean,
    "email_type": "interview" | "assessment" | "rejection" | "follow_up" | "offer" | "recruiter_outreach" | "job_board" | "other",
    "company": "company name or empty string",
    "position": "position title or empty string",
    "urgency": "high" | "normal" | "low",
    "confidence": number between 0 and 1,
    "reasoning": "one short sentence"
  },
  "job_extractions": {
    "is_job_board": boolean,
    "jobs": [
      {"title": "", "company": "", "location": "", "salary": "", "employment_type": "", "apply_link": "", "job_board": ""}
    ]
  },
  "content_analysis": {
    "actionable_summary": "what happened and what the candidate should do",
    "key_insights": [],
    "next_steps": [],
    "sentiment": "positive" | "neutral" | "negative",
    "requires_response": boolean,
    "deadline_mentioned": ""
  },
  "structured_data": {
    "key_info": [{"label": "", "value": "", "info_type": "deadline" | "date" | "link" | "salary" | "location" | "other", "confidence": 0.0}],
    "action_items": [{"task": "", "deadline": "", "priority": "high" | "medium" | "low", "action_type": ""}],
    "interview_date": "", "interview_time": "", "interview_platform": "", "interview_duration": "",
    "assessment_deadline": "", "response_deadline": "", "assessment_type": "",
    "salary_range": "", "location": "",
    "extracted_links": {"calendar": "", "assessment": "", "portal": "", "other": ""},
    "contact_info": {"recruiter_name": "", "recruiter_email": "", "interviewer_names": []}
  }
}
Rules:
- If the email is not job related, fill classification and leave the other
  sections empty.
- Set job_extractions.is_job_board true only for job board digest emails, and
  fill jobs with one entry per posting; otherwise use false and an empty list.
- Keep all dates and times exactly as written in the email.
- Use empty strings for anything the email does not contain. Never invent values.`

// CompleteUnified runs the single-call processing path and returns the raw
// payload for the unified processor to parse.
func (c *Client) CompleteUnified(ctx context.Context, email *domain.RawEmail) (*out.UnifiedCompletion, error) {
	comp, err := c.completeJSON(ctx, unifiedSystemPrompt, emailPrompt(email))
	if err != nil {
		return nil, apperr.LLMError("unified completion", err)
	}

	return &out.UnifiedCompletion{
		Payload:          []byte(comp.content),
		TokensUsed:       comp.totalTokens(),
		ProcessingTimeMs: comp.elapsed.Milliseconds(),
		Model:            c.model,
	}, nil
}
