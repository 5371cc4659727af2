package dashboard

import (
	"sort"
	"time"

	"jobtrack_server/core/domain"
)

// Threaded dashboard variant. A thread is shown when its latest email is
// job-related OR a non-"Unknown" company was ever extracted for it: a
// terminal "thanks!" reply must not hide an otherwise-relevant conversation.

func threadRelevant(thread *domain.ThreadRow) bool {
	if thread.LatestEmail != nil && thread.LatestEmail.IsJobRelated {
		return true
	}
	return thread.Company != "" && thread.Company != "Unknown"
}

// BuildThreadDashboard produces the email_threads-keyed dashboard.
func (a *Aggregator) BuildThreadDashboard(threads []*domain.ThreadRow, now time.Time) *domain.ThreadDashboardData {
	var activities []domain.ThreadActivity
	var latestRows []*domain.EmailRow

	for _, thread := range threads {
		if thread == nil {
			a.log.Warn("skipping malformed thread row")
			continue
		}
		if !threadRelevant(thread) {
			continue
		}

		latest := thread.LatestEmail
		activity := domain.ThreadActivity{
			ThreadID:    thread.ThreadID,
			Company:     thread.Company,
			Position:    thread.Position,
			EmailCount:  thread.EmailCount,
			UnreadCount: thread.UnreadCount,
		}
		if latest != nil {
			activity.Subject = latest.Subject
			activity.EmailType = latest.EmailType
			activity.Urgency = latest.Urgency
			activity.Summary = latest.Summary
			activity.Timestamp = latest.Date
			if activity.Company == "" {
				activity.Company = latest.Company
			}
			if activity.Position == "" {
				activity.Position = latest.Position
			}

			// Inherit the thread-level company so the event dedup key
			// matches across flat and threaded views.
			row := *latest
			if row.Company == "" || row.Company == "Unknown" {
				row.Company = thread.Company
			}
			latestRows = append(latestRows, &row)
		}
		activities = append(activities, activity)
	}

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})

	return &domain.ThreadDashboardData{
		EmailThreads:   activities,
		AttentionItems: a.AttentionItems(latestRows, now),
		UpcomingEvents: a.collectEvents(latestRows, now, 0), // uncapped, same dedup keys
		QuickUpdates:   a.QuickUpdates(latestRows),
		SummaryStats:   a.Stats(latestRows),
	}
}
