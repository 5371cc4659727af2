package domain

import "time"

// EmailRow is a flattened, already-persisted email record as returned by the
// storage layer. The dashboard aggregator consumes these; it never touches
// SQL itself. Slices may contain nil entries for malformed rows; consumers
// skip them with a warning instead of failing the whole view.
type EmailRow struct {
	ID             int64     `json:"id" db:"id"`
	GmailMessageID string    `json:"gmail_message_id" db:"gmail_message_id"`
	ThreadID       string    `json:"thread_id" db:"thread_id"`
	Subject        string    `json:"subject" db:"subject"`
	Sender         string    `json:"sender" db:"sender"`
	Date           time.Time `json:"date" db:"email_date"`
	IsRead         bool      `json:"is_read" db:"is_read"`

	IsJobRelated   bool      `json:"is_job_related" db:"is_job_related"`
	EmailType      EmailType `json:"email_type" db:"email_type"`
	Urgency        Urgency   `json:"urgency" db:"urgency"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	Company        string    `json:"company" db:"company"`
	Position       string    `json:"position" db:"position"`
	Summary        string    `json:"summary" db:"summary"`
	ActionRequired bool      `json:"action_required" db:"action_required"`

	// Structured extraction, flattened for the dashboard paths.
	InterviewDate     string             `json:"interview_date" db:"interview_date"`
	InterviewTime     string             `json:"interview_time" db:"interview_time"`
	InterviewPlatform string             `json:"interview_platform" db:"interview_platform"`
	KeyInfo           []KeyInfo          `json:"key_info,omitempty" db:"-"`
	ActionItems       []ActionItemDetail `json:"action_items,omitempty" db:"-"`

	// Nested extraction payload for rows persisted by older pipeline
	// versions; the event extractor falls back to it when the flattened
	// interview fields are empty.
	ExtractedData *StructuredDataResult `json:"extracted_data,omitempty" db:"-"`
}

// ThreadRow is a pre-grouped conversation record.
type ThreadRow struct {
	ThreadID     string    `json:"thread_id" db:"thread_id"`
	EmailCount   int       `json:"email_count" db:"email_count"`
	UnreadCount  int       `json:"unread_count" db:"unread_count"`
	Participants []string  `json:"participants,omitempty" db:"-"`
	Company      string    `json:"company" db:"company"` // best non-Unknown company ever extracted
	Position     string    `json:"position" db:"position"`
	LatestEmail  *EmailRow `json:"latest_email,omitempty" db:"-"`
}

// EmailActivity is one row of the activity feed.
type EmailActivity struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	EmailType EmailType `json:"email_type"`
	Urgency   Urgency   `json:"urgency"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
}

// AttentionItem is something the user should act on soon.
type AttentionItem struct {
	ID       string  `json:"id"`
	EmailID  string  `json:"email_id"`
	Company  string  `json:"company"`
	Position string  `json:"position"`
	Task     string  `json:"task"`
	Deadline string  `json:"deadline"` // raw string, "" when none
	Urgency  Urgency `json:"urgency"`
	Reason   string  `json:"reason"`
}

// EventType distinguishes upcoming-event kinds.
type EventType string

const (
	EventInterview EventType = "interview"
	EventDeadline  EventType = "deadline"
)

// UpcomingEvent is a future-dated interview or deadline.
type UpcomingEvent struct {
	Key       string    `json:"key"` // dedup key, stable within one aggregation call
	EventType EventType `json:"event_type"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Label     string    `json:"label"`
	Date      time.Time `json:"date"`
	RawDate   string    `json:"raw_date"`
	Platform  string    `json:"platform,omitempty"`
}

// QuickUpdate is a short, recent status change worth surfacing.
type QuickUpdate struct {
	EmailID    string    `json:"email_id"`
	UpdateType string    `json:"update_type"` // rejection, offer, response_needed
	Company    string    `json:"company"`
	Position   string    `json:"position"`
	Summary    string    `json:"summary"`
	Timestamp  time.Time `json:"timestamp"`
}

// CompanyCount is one entry of the top-companies ranking.
type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// SummaryStats aggregates the job search at a glance.
type SummaryStats struct {
	TotalEmails       int               `json:"total_emails"`
	JobRelated        int               `json:"job_related"`
	ByType            map[EmailType]int `json:"by_type"`
	ByUrgency         map[Urgency]int   `json:"by_urgency"`
	TopCompanies      []CompanyCount    `json:"top_companies"`
	ProcessingQuality float64           `json:"processing_quality"` // mean confidence * 100, one decimal
}

// DashboardData is the five-key contract delivered to the presentation layer.
type DashboardData struct {
	EmailActivities []EmailActivity `json:"email_activities"`
	AttentionItems  []AttentionItem `json:"attention_items"`
	UpcomingEvents  []UpcomingEvent `json:"upcoming_events"`
	QuickUpdates    []QuickUpdate   `json:"quick_updates"`
	SummaryStats    SummaryStats    `json:"summary_stats"`
}

// ThreadActivity is the thread-grouped counterpart of EmailActivity.
type ThreadActivity struct {
	ThreadID    string    `json:"thread_id"`
	Subject     string    `json:"subject"`
	Company     string    `json:"company"`
	Position    string    `json:"position"`
	EmailType   EmailType `json:"email_type"`
	Urgency     Urgency   `json:"urgency"`
	Summary     string    `json:"summary"`
	EmailCount  int       `json:"email_count"`
	UnreadCount int       `json:"unread_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// ThreadDashboardData is the email_threads-keyed dashboard variant.
type ThreadDashboardData struct {
	EmailThreads   []ThreadActivity `json:"email_threads"`
	AttentionItems []AttentionItem  `json:"attention_items"`
	UpcomingEvents []UpcomingEvent  `json:"upcoming_events"`
	QuickUpdates   []QuickUpdate    `json:"quick_updates"`
	SummaryStats   SummaryStats     `json:"summary_stats"`
}
