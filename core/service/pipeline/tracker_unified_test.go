package pipeline

import (
	"context"
	"testing"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
)

func unifiedCompletion(payload string) *out.UnifiedCompletion {
	return &out.UnifiedCompletion{
		Payload:    []byte(payload),
		TokensUsed: 500,
		Model:      "gpt-4o-mini",
	}
}

func TestUnifiedProcessorFullPayload(t *testing.T) {
	llm := &fakeLLM{unified: unifiedCompletion(`{
		"classification": {
			"is_job_related": true,
			"email_type": "interview",
			"company": "Acme",
			"position": "Backend Engineer",
			"urgency": "high",
			"confidence": 0.92
		},
		"content_analysis": {
			"actionable_summary": "Confirm your interview slot",
			"sentiment": "positive",
			"requires_response": true
		},
		"structured_data": {
			"interview_date": "2025-06-19",
			"interview_time": "1:30 PM",
			"interview_platform": "Zoom",
			"extracted_links": {"calendar": "https://cal.example.com", "portal": ""},
			"contact_info": {"recruiter_name": "Jordan Lee", "recruiter_email": "jordan@acme.com"}
		}
	}`)}
	p := NewUnifiedProcessor(llm)

	res := p.ProcessEmail(context.Background(), testEmail("u-1"))

	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.ErrorMessage)
	}
	if llm.unifiedCalls != 1 {
		t.Errorf("unified calls = %d, want 1", llm.unifiedCalls)
	}
	if !res.IsJobRelated() {
		t.Error("job-related verdict lost")
	}
	if res.EmailType() != domain.EmailTypeInterview {
		t.Errorf("email type = %s, want interview", res.EmailType())
	}
	if res.Urgency != domain.UrgencyHigh {
		t.Errorf("urgency = %s, want high", res.Urgency)
	}
	if res.TotalTokens != 500 {
		t.Errorf("total tokens = %d, want 500", res.TotalTokens)
	}
	if res.StructuredData == nil {
		t.Fatal("structured data missing")
	}
	if res.StructuredData.InterviewDate != "2025-06-19" {
		t.Errorf("interview date = %q", res.StructuredData.InterviewDate)
	}
	// Empty link values are dropped, non-empty kept.
	if _, ok := res.StructuredData.ExtractedLinks["portal"]; ok {
		t.Error("empty link value kept")
	}
	if res.StructuredData.ExtractedLinks["calendar"] == "" {
		t.Error("calendar link dropped")
	}
	if res.StructuredData.ContactInfo == nil || res.StructuredData.ContactInfo.RecruiterName != "Jordan Lee" {
		t.Errorf("contact info = %+v", res.StructuredData.ContactInfo)
	}
}

func TestUnifiedProcessorMissingFieldsDefaultConservatively(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty object", `{}`},
		{"classification without verdict", `{"classification": {"email_type": "interview"}}`},
		{"null classification", `{"classification": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{unified: unifiedCompletion(tt.payload)}
			p := NewUnifiedProcessor(llm)

			res := p.ProcessEmail(context.Background(), testEmail("u-2"))

			if !res.Success {
				t.Fatalf("expected success, got error: %s", res.ErrorMessage)
			}
			// Missing is_job_related must default to false, never true.
			if res.IsJobRelated() {
				t.Error("missing verdict defaulted to job-related")
			}
		})
	}
}

func TestUnifiedProcessorMalformedJSON(t *testing.T) {
	llm := &fakeLLM{unified: unifiedCompletion(`not json at all`)}
	p := NewUnifiedProcessor(llm)

	res := p.ProcessEmail(context.Background(), testEmail("u-3"))

	if res.Success {
		t.Fatal("expected failure for malformed payload")
	}
	if res.IsJobRelated() {
		t.Error("malformed payload classified as job-related")
	}
	if res.Urgency != domain.UrgencyNormal {
		t.Errorf("urgency = %s, want normal default", res.Urgency)
	}
}

func TestUnifiedProcessorJobBoardExtraction(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantJobs int
	}{
		{
			name: "job board with postings",
			payload: `{
				"classification": {"is_job_related": true, "email_type": "job_board", "confidence": 0.9},
				"job_extractions": {"is_job_board": true, "jobs": [
					{"title": "Go Developer", "company": "Acme", "location": "Remote"},
					{"title": "", "company": ""},
					{"title": "SRE", "company": "Globex"}
				]}
			}`,
			wantJobs: 2,
		},
		{
			name: "postings listed but is_job_board false",
			payload: `{
				"classification": {"is_job_related": true, "email_type": "interview", "confidence": 0.9},
				"job_extractions": {"is_job_board": false, "jobs": [{"title": "Go Developer", "company": "Acme"}]}
			}`,
			wantJobs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{unified: unifiedCompletion(tt.payload)}
			p := NewUnifiedProcessor(llm)

			res := p.ProcessEmail(context.Background(), testEmail("u-4"))

			if len(res.ExtractedJobs) != tt.wantJobs {
				t.Errorf("extracted %d jobs, want %d", len(res.ExtractedJobs), tt.wantJobs)
			}
		})
	}
}

func TestUnifiedProcessorConfidenceClamped(t *testing.T) {
	llm := &fakeLLM{unified: unifiedCompletion(
		`{"classification": {"is_job_related": true, "confidence": 3.5}}`)}
	p := NewUnifiedProcessor(llm)

	res := p.ProcessEmail(context.Background(), testEmail("u-5"))

	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamped to 1.0", res.Confidence)
	}
}

func TestUnifiedProcessorBatchLengthInvariant(t *testing.T) {
	llm := &fakeLLM{unified: unifiedCompletion(
		`{"classification": {"is_job_related": false, "confidence": 0.8}}`)}
	p := NewUnifiedProcessor(llm)

	emails := []*domain.RawEmail{testEmail("b-1"), testEmail("b-2"), testEmail("b-3")}
	results := p.ProcessBatch(context.Background(), emails)

	if len(results) != len(emails) {
		t.Fatalf("got %d results for %d emails", len(results), len(emails))
	}
	if llm.unifiedCalls != 3 {
		t.Errorf("unified calls = %d, want 3", llm.unifiedCalls)
	}
	for i, res := range results {
		if res.Email.GmailMessageID != emails[i].GmailMessageID {
			t.Errorf("result %d is for %s, want %s", i, res.Email.GmailMessageID, emails[i].GmailMessageID)
		}
	}
}

func TestUnifiedProcessBatchSmartChunks(t *testing.T) {
	llm := &fakeLLM{unified: unifiedCompletion(
		`{"classification": {"is_job_related": false, "confidence": 0.8}}`)}
	sug := &fixedSuggester{size: 2}
	p := NewUnifiedProcessor(llm, WithUnifiedCapacitySuggester(sug))

	emails := make([]*domain.RawEmail, 5)
	for i := range emails {
		emails[i] = testEmail("s-" + string(rune('a'+i)))
	}
	results := p.ProcessBatchSmart(context.Background(), emails)

	if len(results) != 5 {
		t.Fatalf("got %d results, want 5", len(results))
	}
	if sug.suggests != 3 {
		t.Errorf("chunk suggestions = %d, want 3", sug.suggests)
	}
	// Each call costs 500 tokens; chunks of 2, 2, 1.
	want := []int{1000, 1000, 500}
	if len(sug.recorded) != len(want) {
		t.Fatalf("recorded usage %v, want %v", sug.recorded, want)
	}
	for i, tokens := range want {
		if sug.recorded[i] != tokens {
			t.Errorf("chunk %d recorded %d tokens, want %d", i, sug.recorded[i], tokens)
		}
	}
}

func TestUnifiedProcessBatchSmartWithoutSuggester(t *testing.T) {
	llm := &fakeLLM{unified: unifiedCompletion(
		`{"classification": {"is_job_related": false, "confidence": 0.8}}`)}
	p := NewUnifiedProcessor(llm)

	results := p.ProcessBatchSmart(context.Background(),
		[]*domain.RawEmail{testEmail("f-1"), testEmail("f-2")})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
}

func TestProcessingResultStageMonotonic(t *testing.T) {
	res := domain.NewProcessingResult(*testEmail("m-1"))

	res.ApplyClassification(&domain.ClassificationResult{IsJobRelated: true, Confidence: 0.9})
	if res.Stage != domain.StageContentExtraction {
		t.Fatalf("stage after classification = %s", res.Stage)
	}

	res.ApplyContentExtraction(&domain.ContentExtractionResult{Confidence: 0.5})
	if res.Stage != domain.StageDataStructuring {
		t.Fatalf("stage after extraction = %s", res.Stage)
	}
	// A lower-confidence later stage never drags the merged confidence down.
	if res.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9 retained", res.Confidence)
	}

	res.Finalize()
	if !res.IsTerminal() {
		t.Fatal("finalized result not terminal")
	}

	// Terminal results ignore further writes.
	res.ApplyStructuredData(&domain.StructuredDataResult{TokensUsed: 999})
	if res.StructuredData != nil {
		t.Error("terminal result accepted structured data")
	}
	res.MarkFailed("late failure")
	if !res.Success {
		t.Error("terminal result flipped to failed")
	}
}
