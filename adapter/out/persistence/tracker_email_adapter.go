// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// EmailAdapter implements out.EmailStore using PostgreSQL.
type EmailAdapter struct {
	db *sqlx.DB
}

// NewEmailAdapter creates a new EmailAdapter.
func NewEmailAdapter(db *sqlx.DB) *EmailAdapter {
	return &EmailAdapter{db: db}
}

// emailSelectColumns contains explicit column names for SELECT queries.
const emailSelectColumns = `
	e.id, e.gmail_message_id, e.thread_id, e.subject, e.sender, e.email_date, e.is_read,
	e.is_job_related, e.email_type, e.urgency, e.confidence,
	e.company, e.position, e.summary, e.action_required,
	e.interview_date, e.interview_time, e.interview_platform,
	e.key_info, e.action_items, e.extracted_data`

// emailRow represents the database row for processed emails.
// key_info, action_items and extracted_data are JSONB blobs decoded lazily;
// a malformed blob degrades to an empty field rather than failing the row.
type emailRow struct {
	ID             int64          `db:"id"`
	GmailMessageID string         `db:"gmail_message_id"`
	ThreadID       sql.NullString `db:"thread_id"`
	Subject        string         `db:"subject"`
	Sender         string         `db:"sender"`
	EmailDate      time.Time      `db:"email_date"`
	IsRead         bool           `db:"is_read"`

	IsJobRelated   bool            `db:"is_job_related"`
	EmailType      string          `db:"email_type"`
	Urgency        string          `db:"urgency"`
	Confidence     sql.NullFloat64 `db:"confidence"`
	Company        sql.NullString  `db:"company"`
	Position       sql.NullString  `db:"position"`
	Summary        sql.NullString  `db:"summary"`
	ActionRequired bool            `db:"action_required"`

	InterviewDate     sql.NullString `db:"interview_date"`
	InterviewTime     sql.NullString `db:"interview_time"`
	InterviewPlatform sql.NullString `db:"interview_platform"`

	KeyInfoJSON       []byte `db:"key_info"`
	ActionItemsJSON   []byte `db:"action_items"`
	ExtractedDataJSON []byte `db:"extracted_data"`
}

func (r *emailRow) toDomain() *domain.EmailRow {
	row := &domain.EmailRow{
		ID:             r.ID,
		GmailMessageID: r.GmailMessageID,
		ThreadID:       r.ThreadID.String,
		Subject:        r.Subject,
		Sender:         r.Sender,
		Date:           r.EmailDate,
		IsRead:         r.IsRead,
		IsJobRelated:   r.IsJobRelated,
		EmailType:      domain.ParseEmailType(r.EmailType),
		Urgency:        domain.ParseUrgency(r.Urgency),
		Confidence:     r.Confidence.Float64,
		Company:        r.Company.String,
		Position:       r.Position.String,
		Summary:        r.Summary.String,
		ActionRequired: r.ActionRequired,

		InterviewDate:     r.InterviewDate.String,
		InterviewTime:     r.InterviewTime.String,
		InterviewPlatform: r.InterviewPlatform.String,
	}

	if len(r.KeyInfoJSON) > 0 {
		_ = json.Unmarshal(r.KeyInfoJSON, &row.KeyInfo)
	}
	if len(r.ActionItemsJSON) > 0 {
		_ = json.Unmarshal(r.ActionItemsJSON, &row.ActionItems)
	}
	if len(r.ExtractedDataJSON) > 0 {
		var data domain.StructuredDataResult
		if err := json.Unmarshal(r.ExtractedDataJSON, &data); err == nil {
			row.ExtractedData = &data
		}
	}

	return row
}

// UpsertResult stores a processing result keyed by gmail_message_id.
// Re-processing overwrites the previous analysis.
func (a *EmailAdapter) UpsertResult(ctx context.Context, userID uuid.UUID, res *domain.ProcessingResult) (int64, error) {
	if res == nil {
		return 0, ErrInvalidInput
	}

	var keyInfoJSON, actionItemsJSON, extractedJSON []byte
	if res.StructuredData != nil {
		keyInfoJSON, _ = json.Marshal(res.StructuredData.KeyInfo)
		actionItemsJSON, _ = json.Marshal(res.StructuredData.ActionItems)
		extractedJSON, _ = json.Marshal(res.StructuredData)
	}

	summary := ""
	actionRequired := false
	if res.ContentExtraction != nil {
		summary = res.ContentExtraction.ActionableSummary
		actionRequired = res.ContentExtraction.RequiresResponse
	}

	interviewDate, interviewTime, interviewPlatform := "", "", ""
	if res.StructuredData != nil {
		interviewDate = res.StructuredData.InterviewDate
		interviewTime = res.StructuredData.InterviewTime
		interviewPlatform = res.StructuredData.InterviewPlatform
	}

	query := `
		INSERT INTO processed_emails (
			user_id, gmail_message_id, thread_id, subject, sender, email_date, is_read,
			is_job_related, email_type, urgency, confidence,
			company, position, summary, action_required,
			interview_date, interview_time, interview_platform,
			key_info, action_items, extracted_data,
			processing_stage, success, error_message,
			total_tokens, processing_time_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		)
		ON CONFLICT (user_id, gmail_message_id) DO UPDATE SET
			is_job_related = EXCLUDED.is_job_related,
			email_type = EXCLUDED.email_type,
			urgency = EXCLUDED.urgency,
			confidence = EXCLUDED.confidence,
			company = EXCLUDED.company,
			position = EXCLUDED.position,
			summary = EXCLUDED.summary,
			action_required = EXCLUDED.action_required,
			interview_date = EXCLUDED.interview_date,
			interview_time = EXCLUDED.interview_time,
			interview_platform = EXCLUDED.interview_platform,
			key_info = EXCLUDED.key_info,
			action_items = EXCLUDED.action_items,
			extracted_data = EXCLUDED.extracted_data,
			processing_stage = EXCLUDED.processing_stage,
			success = EXCLUDED.success,
			error_message = EXCLUDED.error_message,
			total_tokens = EXCLUDED.total_tokens,
			processing_time_ms = EXCLUDED.processing_time_ms,
			updated_at = NOW()
		RETURNING id`

	var id int64
	err := a.db.QueryRowxContext(ctx, query,
		userID, res.Email.GmailMessageID, nullStr(res.Email.ThreadID),
		res.Email.Subject, res.Email.Sender, res.Email.Date, res.Email.IsRead,
		res.IsJobRelated(), string(res.EmailType()), string(res.Urgency), res.Confidence,
		nullStr(res.Company), nullStr(res.Position), nullStr(summary), actionRequired,
		nullStr(interviewDate), nullStr(interviewTime), nullStr(interviewPlatform),
		nullJSON(keyInfoJSON), nullJSON(actionItemsJSON), nullJSON(extractedJSON),
		string(res.Stage), res.Success, nullStr(res.ErrorMessage),
		res.TotalTokens, res.TotalProcessingTimeMs,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert email result: %w", err)
	}

	return id, nil
}

// LinkEntities attaches resolved company/contact ids to a stored email.
func (a *EmailAdapter) LinkEntities(ctx context.Context, emailID int64, companyID, contactID *int64) error {
	result, err := a.db.ExecContext(ctx,
		"UPDATE processed_emails SET company_id = $1, contact_id = $2, updated_at = NOW() WHERE id = $3",
		companyID, contactID, emailID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProcessedEmails returns recent rows for the dashboard aggregator,
// newest first.
func (a *EmailAdapter) GetProcessedEmails(ctx context.Context, userID uuid.UUID, daysBack, limit int) ([]*domain.EmailRow, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM processed_emails e
		WHERE e.user_id = $1 AND e.email_date >= NOW() - ($2 || ' days')::interval
		ORDER BY e.email_date DESC
		LIMIT $3`, emailSelectColumns)

	rows, err := a.db.QueryxContext(ctx, query, userID, daysBack, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed emails: %w", err)
	}
	defer rows.Close()

	var result []*domain.EmailRow
	for rows.Next() {
		var row emailRow
		if err := rows.StructScan(&row); err != nil {
			continue
		}
		result = append(result, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// threadRow is one pre-grouped conversation produced by the window query.
type threadRow struct {
	emailRow
	EmailCount   int            `db:"email_count"`
	UnreadCount  int            `db:"unread_count"`
	Participants pq.StringArray `db:"participants"`
	BestCompany  sql.NullString `db:"best_company"`
	BestPosition sql.NullString `db:"best_position"`
}

// GetEmailThreads groups recent emails by thread and returns one row per
// conversation carrying its latest email. Emails without a thread id form
// single-message threads keyed by their own gmail id.
func (a *EmailAdapter) GetEmailThreads(ctx context.Context, userID uuid.UUID, daysBack, limit int) ([]*domain.ThreadRow, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	if limit <= 0 || limit > 500 {
		limit = 200
	}

	// best_company prefers the most recent non-empty, non-Unknown extraction
	// anywhere in the thread, so a reply that failed extraction does not
	// erase the thread's company.
	query := fmt.Sprintf(`
		WITH scoped AS (
			SELECT e.*, COALESCE(NULLIF(e.thread_id, ''), e.gmail_message_id) AS group_id
			FROM processed_emails e
			WHERE e.user_id = $1 AND e.email_date >= NOW() - ($2 || ' days')::interval
		),
		grouped AS (
			SELECT group_id,
				COUNT(*) AS email_count,
				COUNT(*) FILTER (WHERE NOT is_read) AS unread_count,
				ARRAY_AGG(DISTINCT sender) AS participants,
				(ARRAY_AGG(company ORDER BY email_date DESC)
					FILTER (WHERE company IS NOT NULL AND company != '' AND company != 'Unknown'))[1] AS best_company,
				(ARRAY_AGG(position ORDER BY email_date DESC)
					FILTER (WHERE position IS NOT NULL AND position != ''))[1] AS best_position,
				MAX(email_date) AS latest_date
			FROM scoped
			GROUP BY group_id
		)
		SELECT %s,
			g.email_count, g.unread_count, g.participants, g.best_company, g.best_position
		FROM grouped g
		JOIN scoped e ON e.group_id = g.group_id AND e.email_date = g.latest_date
		ORDER BY g.latest_date DESC
		LIMIT $3`, emailSelectColumns)

	rows, err := a.db.QueryxContext(ctx, query, userID, daysBack, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query email threads: %w", err)
	}
	defer rows.Close()

	var result []*domain.ThreadRow
	for rows.Next() {
		var row threadRow
		if err := rows.StructScan(&row); err != nil {
			continue
		}
		latest := row.emailRow.toDomain()
		threadID := latest.ThreadID
		if threadID == "" {
			threadID = latest.GmailMessageID
		}
		result = append(result, &domain.ThreadRow{
			ThreadID:     threadID,
			EmailCount:   row.EmailCount,
			UnreadCount:  row.UnreadCount,
			Participants: row.Participants,
			Company:      row.BestCompany.String,
			Position:     row.BestPosition.String,
			LatestEmail:  latest,
		})
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// GetEmailsInThread returns all stored emails of one conversation, oldest first.
func (a *EmailAdapter) GetEmailsInThread(ctx context.Context, threadID string) ([]*domain.EmailRow, error) {
	if threadID == "" {
		return nil, ErrInvalidInput
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM processed_emails e
		WHERE e.thread_id = $1 OR e.gmail_message_id = $1
		ORDER BY e.email_date ASC`, emailSelectColumns)

	rows, err := a.db.QueryxContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query thread emails: %w", err)
	}
	defer rows.Close()

	var result []*domain.EmailRow
	for rows.Next() {
		var row emailRow
		if err := rows.StructScan(&row); err != nil {
			continue
		}
		result = append(result, row.toDomain())
	}

	return result, nil
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ out.EmailStore = (*EmailAdapter)(nil)
