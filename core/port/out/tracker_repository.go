package out

import (
	"context"

	"jobtrack_server/core/domain"

	"github.com/google/uuid"
)

// EmailStore persists accumulated processing results and serves the
// flattened rows the dashboard aggregator consumes.
type EmailStore interface {
	// UpsertResult stores a processing result keyed by the email's
	// gmail_message_id. Re-processing the same email overwrites the
	// previous row; the operation is idempotent.
	UpsertResult(ctx context.Context, userID uuid.UUID, res *domain.ProcessingResult) (int64, error)

	// LinkEntities attaches resolved company/contact ids to a stored email.
	// Either id may be nil when resolution failed.
	LinkEntities(ctx context.Context, emailID int64, companyID, contactID *int64) error

	GetProcessedEmails(ctx context.Context, userID uuid.UUID, daysBack, limit int) ([]*domain.EmailRow, error)
	GetEmailThreads(ctx context.Context, userID uuid.UUID, daysBack, limit int) ([]*domain.ThreadRow, error)
	GetEmailsInThread(ctx context.Context, threadID string) ([]*domain.EmailRow, error)
}

// CompanyRepository is the relational store entity resolution matches against.
type CompanyRepository interface {
	GetByDomain(ctx context.Context, userID uuid.UUID, domainName string) (*domain.Company, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*domain.Company, error)
	ListForMatching(ctx context.Context, userID uuid.UUID) ([]*domain.Company, error)
	Create(ctx context.Context, company *domain.Company) (int64, error)
}

// ContactRepository stores people associated with companies.
type ContactRepository interface {
	GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*domain.Contact, error)
	ListByCompany(ctx context.Context, userID uuid.UUID, companyID *int64) ([]*domain.Contact, error)
	Create(ctx context.Context, contact *domain.Contact) (int64, error)
}

// JobStore persists job postings extracted from job-board digests, keyed by
// content hash.
type JobStore interface {
	UpsertJobs(ctx context.Context, userID uuid.UUID, jobs []domain.RawJob) (int, error)
}

// EmailBodyStore archives raw email bodies outside the relational store.
type EmailBodyStore interface {
	Save(ctx context.Context, gmailMessageID, body string) error
	Get(ctx context.Context, gmailMessageID string) (string, error)
}

// EmailFetcher supplies normalized raw emails from the mail provider.
type EmailFetcher interface {
	FetchRecent(ctx context.Context, daysBack, limit int) ([]*domain.RawEmail, error)
}
