package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EmailType represents the AI-assigned category of a job-search email
type EmailType string

const (
	EmailTypeInterview         EmailType = "interview"          // Interview invitations and confirmations
	EmailTypeAssessment        EmailType = "assessment"         // Coding tests, take-home assignments
	EmailTypeRejection         EmailType = "rejection"          // Application rejections
	EmailTypeFollowUp          EmailType = "follow_up"          // Follow-ups and application confirmations
	EmailTypeOffer             EmailType = "offer"              // Job offers
	EmailTypeRecruiterOutreach EmailType = "recruiter_outreach" // Cold outreach from recruiters
	EmailTypeJobBoard          EmailType = "job_board"          // Job board digests (LinkedIn, Indeed)
	EmailTypeOther             EmailType = "other"              // Everything else
)

// emailTypeTable maps raw LLM strings to EmailType. Unmapped values fall back
// to EmailTypeOther; "application_confirmation" is folded into follow_up since
// the dashboard treats them identically.
var emailTypeTable = map[string]EmailType{
	"interview":                EmailTypeInterview,
	"assessment":               EmailTypeAssessment,
	"rejection":                EmailTypeRejection,
	"follow_up":                EmailTypeFollowUp,
	"offer":                    EmailTypeOffer,
	"recruiter_outreach":       EmailTypeRecruiterOutreach,
	"job_board":                EmailTypeJobBoard,
	"application_confirmation": EmailTypeFollowUp,
	"other":                    EmailTypeOther,
}

// ParseEmailType converts a raw LLM string to an EmailType.
func ParseEmailType(s string) EmailType {
	if t, ok := emailTypeTable[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t
	}
	return EmailTypeOther
}

// Urgency represents how quickly the user should react to an email
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyNormal Urgency = "normal"
	UrgencyLow    Urgency = "low"
)

// ParseUrgency converts a raw string to Urgency, defaulting to normal.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return UrgencyHigh
	case "low":
		return UrgencyLow
	default:
		return UrgencyNormal
	}
}

// Sentiment represents the tone of an email toward the candidate
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUnknown  Sentiment = "unknown"
)

// ParseSentiment converts a raw string to Sentiment, defaulting to unknown.
func ParseSentiment(s string) Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return SentimentPositive
	case "neutral":
		return SentimentNeutral
	case "negative":
		return SentimentNegative
	default:
		return SentimentUnknown
	}
}

// Validation errors for raw inputs.
var (
	ErrMissingMessageID = errors.New("raw email is missing a message id")
	ErrEmptyEmail       = errors.New("raw email has neither subject nor body")
)

// RawEmail is a normalized email record as supplied by the fetcher.
// It is immutable once fetched; re-processing the same GmailMessageID is
// idempotent via upsert.
type RawEmail struct {
	GmailMessageID string    `json:"id"`
	ThreadID       string    `json:"thread_id,omitempty"`
	Subject        string    `json:"subject"`
	Sender         string    `json:"sender"`
	Recipient      string    `json:"recipient,omitempty"`
	Date           time.Time `json:"date"`
	Body           string    `json:"body,omitempty"`
	Snippet        string    `json:"snippet,omitempty"`
	IsRead         bool      `json:"is_read"`
}

// Validate rejects records that must not enter the pipeline.
func (e *RawEmail) Validate() error {
	if strings.TrimSpace(e.GmailMessageID) == "" {
		return ErrMissingMessageID
	}
	if strings.TrimSpace(e.Subject) == "" && strings.TrimSpace(e.Body) == "" {
		return ErrEmptyEmail
	}
	return nil
}

// Content returns the best available text for LLM analysis.
func (e *RawEmail) Content() string {
	if strings.TrimSpace(e.Body) != "" {
		return e.Body
	}
	return e.Snippet
}

// RawJob is a scraped or extracted job posting.
type RawJob struct {
	Title          string `json:"title"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	Salary         string `json:"salary"`
	EmploymentType string `json:"employment_type"`
	ApplyLink      string `json:"apply_link"`
	JobBoard       string `json:"job_board"`
}

// ContentHash returns the natural key for a job posting, a hash of the
// stable identifying fields only. Stable across runs, unlike hashing the
// whole struct representation.
func (j *RawJob) ContentHash() string {
	h := sha256.New()
	for _, part := range []string{j.Title, j.Company, j.Location, j.ApplyLink} {
		h.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// EmailAccount links a tracked mailbox to a user.
type EmailAccount struct {
	UserID       uuid.UUID `json:"user_id"`
	AccountEmail string    `json:"account_email"`
	LastSyncedAt time.Time `json:"last_synced_at"`
}
