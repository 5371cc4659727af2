// Package ingest orchestrates one processing run: fetch, analyze, resolve
// entities, persist.
package ingest

import (
	"context"
	"fmt"
	"time"

	"jobtrack_server/core/domain"
	"jobtrack_server/core/port/out"
	"jobtrack_server/core/service/entity"
	"jobtrack_server/core/service/pipeline"
	"jobtrack_server/pkg/logger"

	"github.com/google/uuid"
)

// RunReport summarizes one processing run.
type RunReport struct {
	Fetched          int           `json:"fetched"`
	Processed        int           `json:"processed"`
	Succeeded        int           `json:"succeeded"`
	JobRelated       int           `json:"job_related"`
	JobsStored       int           `json:"jobs_stored"`
	CompaniesCreated int           `json:"companies_created"`
	ContactsCreated  int           `json:"contacts_created"`
	TotalTokens      int           `json:"total_tokens"`
	Elapsed          time.Duration `json:"-"`
	ElapsedMs        int64         `json:"elapsed_ms"`
}

// Service wires the pipeline to storage. Every run is synchronous; callers
// wanting fire-and-forget wrap it in a goroutine.
type Service struct {
	fetcher   out.EmailFetcher
	processor pipeline.Processor
	resolver  *entity.Resolver
	emails    out.EmailStore
	jobs      out.JobStore
	bodies    out.EmailBodyStore
	log       *logger.Logger
}

// NewService creates an ingest service. bodies may be nil when body archival
// is disabled.
func NewService(
	fetcher out.EmailFetcher,
	processor pipeline.Processor,
	resolver *entity.Resolver,
	emails out.EmailStore,
	jobs out.JobStore,
	bodies out.EmailBodyStore,
) *Service {
	return &Service{
		fetcher:   fetcher,
		processor: processor,
		resolver:  resolver,
		emails:    emails,
		jobs:      jobs,
		bodies:    bodies,
		log:       logger.Default().WithField("component", "ingest"),
	}
}

// Stats exposes the pipeline's running counters.
func (s *Service) Stats() pipeline.ProcessorStats {
	return s.processor.Stats()
}

// Run fetches recent mail and pushes it through the full pipeline. Individual
// email failures are counted, not propagated; only fetch errors fail the run.
func (s *Service) Run(ctx context.Context, userID uuid.UUID, daysBack, limit int) (*RunReport, error) {
	start := time.Now()

	if s.fetcher == nil {
		return nil, fmt.Errorf("no email fetcher configured")
	}

	emails, err := s.fetcher.FetchRecent(ctx, daysBack, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	report := &RunReport{Fetched: len(emails)}
	if len(emails) == 0 {
		report.Elapsed = time.Since(start)
		report.ElapsedMs = report.Elapsed.Milliseconds()
		return report, nil
	}

	s.archiveBodies(ctx, emails)

	results := s.processor.ProcessBatchSmart(ctx, emails)
	for _, res := range results {
		report.Processed++
		report.TotalTokens += res.TotalTokens
		if res.Success {
			report.Succeeded++
		}
		if res.IsJobRelated() {
			report.JobRelated++
		}
		s.persistResult(ctx, userID, res, report)
	}

	report.Elapsed = time.Since(start)
	report.ElapsedMs = report.Elapsed.Milliseconds()
	s.log.WithDuration(report.Elapsed).Info(
		"run complete: %d fetched, %d succeeded, %d job-related",
		report.Fetched, report.Succeeded, report.JobRelated)

	return report, nil
}

// archiveBodies saves raw bodies before processing so a pipeline failure
// never loses the original text. Best effort.
func (s *Service) archiveBodies(ctx context.Context, emails []*domain.RawEmail) {
	if s.bodies == nil {
		return
	}
	for _, email := range emails {
		if email.Body == "" {
			continue
		}
		if err := s.bodies.Save(ctx, email.GmailMessageID, email.Body); err != nil {
			s.log.WithError(err).Warn("body archive failed for %s", email.GmailMessageID)
		}
	}
}

// persistResult stores one result and links resolved entities. Storage
// failures are logged per item; the run continues.
func (s *Service) persistResult(ctx context.Context, userID uuid.UUID, res *domain.ProcessingResult, report *RunReport) {
	emailID, err := s.emails.UpsertResult(ctx, userID, res)
	if err != nil {
		s.log.WithError(err).Error("failed to store result for %s", res.Email.GmailMessageID)
		return
	}

	if len(res.ExtractedJobs) > 0 && s.jobs != nil {
		stored, err := s.jobs.UpsertJobs(ctx, userID, res.ExtractedJobs)
		if err != nil {
			s.log.WithError(err).Warn("failed to store job postings for %s", res.Email.GmailMessageID)
		} else {
			report.JobsStored += stored
		}
	}

	if !res.IsJobRelated() || s.resolver == nil {
		return
	}

	companySignals, contactSignals := entity.SignalsFromResult(res)

	companyMatch := s.resolver.FindOrCreateCompany(ctx, userID, companySignals)
	if companyMatch.IsNew {
		report.CompaniesCreated++
	}

	contactMatch := s.resolver.FindOrCreateContact(ctx, userID, contactSignals, companyMatch.ID)
	if contactMatch.IsNew {
		report.ContactsCreated++
	}

	if companyMatch.ID == nil && contactMatch.ID == nil {
		return
	}
	if err := s.emails.LinkEntities(ctx, emailID, companyMatch.ID, contactMatch.ID); err != nil {
		s.log.WithError(err).Warn("failed to link entities for email %d", emailID)
	}
}
