package persistence

import (
	"context"
	"fmt"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// JobAdapter implements out.JobStore using PostgreSQL.
type JobAdapter struct {
	db *sqlx.DB
}

// NewJobAdapter creates a new JobAdapter.
func NewJobAdapter(db *sqlx.DB) *JobAdapter {
	return &JobAdapter{db: db}
}

// UpsertJobs stores job postings keyed by content hash. Duplicates within the
// batch or against existing rows are counted once; the return value is the
// number of newly inserted rows.
func (a *JobAdapter) UpsertJobs(ctx context.Context, userID uuid.UUID, jobs []domain.RawJob) (int, error) {
	if len(jobs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO job_postings (
			user_id, content_hash, title, company, location, salary,
			employment_type, apply_link, job_board
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, content_hash) DO NOTHING`

	inserted := 0
	seen := make(map[string]struct{}, len(jobs))
	for i := range jobs {
		job := &jobs[i]
		if job.Title == "" && job.Company == "" {
			continue
		}
		hash := job.ContentHash()
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		result, err := a.db.ExecContext(ctx, query,
			userID, hash, job.Title, job.Company, nullStr(job.Location),
			nullStr(job.Salary), nullStr(job.EmploymentType),
			nullStr(job.ApplyLink), nullStr(job.JobBoard))
		if err != nil {
			return inserted, fmt.Errorf("failed to upsert job posting: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows > 0 {
			inserted++
		}
	}

	return inserted, nil
}

var _ out.JobStore = (*JobAdapter)(nil)
