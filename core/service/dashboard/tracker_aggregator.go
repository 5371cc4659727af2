package dashboard

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"jobtrack_server/core/domain"
	"jobtrack_server/pkg/logger"
)

// View caps. The dashboard is a glance, not an archive.
const (
	attentionCap        = 10
	quickRejectionCap   = 3
	quickOfferCap       = 2
	quickResponseCap    = 3
	quickUpdatesCap     = 8
	topCompaniesCap     = 10
	deadlineSoonWindow  = 48 * time.Hour
	emptyDeadlineSortAs = "9999-12-31" // empty deadlines sort last within their tier
)

// Aggregator computes dashboard views from flattened stored rows. Every view
// is computed fresh per call; nothing is cached here.
type Aggregator struct {
	log *logger.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{log: logger.Default().WithField("component", "dashboard")}
}

// BuildDashboard produces the five-view contract from flat email rows.
func (a *Aggregator) BuildDashboard(rows []*domain.EmailRow, now time.Time) *domain.DashboardData {
	return &domain.DashboardData{
		EmailActivities: a.Activities(rows),
		AttentionItems:  a.AttentionItems(rows, now),
		UpcomingEvents:  a.collectEvents(rows, now, upcomingEventsCap),
		QuickUpdates:    a.QuickUpdates(rows),
		SummaryStats:    a.Stats(rows),
	}
}

// rowID returns the stored id, or a content hash of stable fields as a last
// resort. The hash is reproducible across runs because it covers only stable
// fields, but it is not a durable key and is never persisted.
func rowID(row *domain.EmailRow) string {
	if row.ID != 0 {
		return fmt.Sprintf("%d", row.ID)
	}
	if row.GmailMessageID != "" {
		return row.GmailMessageID
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", row.Subject, row.Sender, row.Date.Format(time.RFC3339))
	return fmt.Sprintf("h%x", h.Sum64())
}

// Activities returns the job-related activity feed, newest first. Sorting is
// purely by timestamp; urgency does not group or reorder the feed.
func (a *Aggregator) Activities(rows []*domain.EmailRow) []domain.EmailActivity {
	activities := make([]domain.EmailActivity, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			a.log.Warn("skipping malformed row in activities")
			continue
		}
		if !row.IsJobRelated {
			continue
		}
		activities = append(activities, domain.EmailActivity{
			ID:        rowID(row),
			Subject:   row.Subject,
			Company:   row.Company,
			Position:  row.Position,
			EmailType: row.EmailType,
			Urgency:   row.Urgency,
			Summary:   row.Summary,
			Timestamp: row.Date,
			IsRead:    row.IsRead,
		})
	}
	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	return activities
}

// =============================================================================
// Attention items
// =============================================================================

// deadlineWithin reports whether any action-item or key-info deadline on the
// row falls inside the window.
func deadlineWithin(row *domain.EmailRow, now time.Time, window time.Duration) bool {
	for _, item := range row.ActionItems {
		if t, ok := ParseFlexible(item.Deadline, ""); ok {
			if !t.Before(now) && t.Sub(now) <= window {
				return true
			}
		}
	}
	for _, info := range row.KeyInfo {
		if info.InfoType != "deadline" {
			continue
		}
		if t, ok := ParseFlexible(info.Value, ""); ok {
			if !t.Before(now) && t.Sub(now) <= window {
				return true
			}
		}
	}
	return false
}

func needsAttention(row *domain.EmailRow, now time.Time) bool {
	return row.Urgency == domain.UrgencyHigh ||
		row.ActionRequired ||
		deadlineWithin(row, now, deadlineSoonWindow)
}

// attentionItemID hashes email id + task text so the same task resurfacing in
// a re-aggregation keeps a stable id within the run.
func attentionItemID(emailID, task string) string {
	h := fnv.New64a()
	h.Write([]byte(emailID))
	h.Write([]byte(task))
	return fmt.Sprintf("a%x", h.Sum64())
}

// AttentionItems returns the top items needing action. Rows with structured
// action items contribute one entry per high-priority item; rows without fall
// back to a single entry for the whole email.
func (a *Aggregator) AttentionItems(rows []*domain.EmailRow, now time.Time) []domain.AttentionItem {
	var items []domain.AttentionItem

	for _, row := range rows {
		if row == nil {
			a.log.Warn("skipping malformed row in attention items")
			continue
		}
		if !row.IsJobRelated || !needsAttention(row, now) {
			continue
		}

		emailID := rowID(row)
		emitted := 0
		for _, action := range row.ActionItems {
			if action.Priority != "high" {
				continue
			}
			items = append(items, domain.AttentionItem{
				ID:       attentionItemID(emailID, action.Task),
				EmailID:  emailID,
				Company:  row.Company,
				Position: row.Position,
				Task:     action.Task,
				Deadline: action.Deadline,
				Urgency:  row.Urgency,
				Reason:   "action_item",
			})
			emitted++
		}

		if emitted == 0 {
			task := row.Summary
			if task == "" {
				task = row.Subject
			}
			items = append(items, domain.AttentionItem{
				ID:       attentionItemID(emailID, task),
				EmailID:  emailID,
				Company:  row.Company,
				Position: row.Position,
				Task:     task,
				Urgency:  row.Urgency,
				Reason:   attentionReason(row, now),
			})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		ri, rj := urgencyRank(items[i].Urgency), urgencyRank(items[j].Urgency)
		if ri != rj {
			return ri < rj
		}
		return sortableDeadline(items[i].Deadline) < sortableDeadline(items[j].Deadline)
	})
	if len(items) > attentionCap {
		items = items[:attentionCap]
	}
	return items
}

func urgencyRank(u domain.Urgency) int {
	if u == domain.UrgencyHigh {
		return 0
	}
	return 1
}

func sortableDeadline(deadline string) string {
	if deadline == "" {
		return emptyDeadlineSortAs
	}
	return deadline
}

func attentionReason(row *domain.EmailRow, now time.Time) string {
	switch {
	case row.Urgency == domain.UrgencyHigh:
		return "high_urgency"
	case row.ActionRequired:
		return "action_required"
	case deadlineWithin(row, now, deadlineSoonWindow):
		return "deadline_soon"
	default:
		return "attention"
	}
}

// =============================================================================
// Quick updates
// =============================================================================

// QuickUpdates merges three independently capped slices: meaty rejections,
// offers, and high-urgency mail asking for a response.
func (a *Aggregator) QuickUpdates(rows []*domain.EmailRow) []domain.QuickUpdate {
	var rejections, offers, responses []domain.QuickUpdate

	for _, row := range rows {
		if row == nil {
			a.log.Warn("skipping malformed row in quick updates")
			continue
		}
		if !row.IsJobRelated {
			continue
		}
		update := domain.QuickUpdate{
			EmailID:   rowID(row),
			Company:   row.Company,
			Position:  row.Position,
			Summary:   row.Summary,
			Timestamp: row.Date,
		}
		switch {
		case row.EmailType == domain.EmailTypeRejection && len(row.Summary) > 50 && len(rejections) < quickRejectionCap:
			update.UpdateType = "rejection"
			rejections = append(rejections, update)
		case row.EmailType == domain.EmailTypeOffer && len(offers) < quickOfferCap:
			update.UpdateType = "offer"
			offers = append(offers, update)
		case row.Urgency == domain.UrgencyHigh && strings.Contains(strings.ToLower(row.Summary), "respond") &&
			len(responses) < quickResponseCap:
			update.UpdateType = "response_needed"
			responses = append(responses, update)
		}
	}

	updates := append(append(rejections, offers...), responses...)
	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Timestamp.After(updates[j].Timestamp)
	})
	if len(updates) > quickUpdatesCap {
		updates = updates[:quickUpdatesCap]
	}
	return updates
}

// =============================================================================
// Summary stats
// =============================================================================

// Stats groups job-related rows by type, urgency and company.
func (a *Aggregator) Stats(rows []*domain.EmailRow) domain.SummaryStats {
	stats := domain.SummaryStats{
		ByType:       make(map[domain.EmailType]int),
		ByUrgency:    make(map[domain.Urgency]int),
		TopCompanies: []domain.CompanyCount{},
	}

	companyCounts := make(map[string]int)
	confidenceSum := 0.0

	for _, row := range rows {
		if row == nil {
			a.log.Warn("skipping malformed row in stats")
			continue
		}
		stats.TotalEmails++
		if !row.IsJobRelated {
			continue
		}
		stats.JobRelated++
		stats.ByType[row.EmailType]++
		stats.ByUrgency[row.Urgency]++
		confidenceSum += row.Confidence
		if row.Company != "" && row.Company != "Unknown" {
			companyCounts[row.Company]++
		}
	}

	for company, count := range companyCounts {
		stats.TopCompanies = append(stats.TopCompanies, domain.CompanyCount{Company: company, Count: count})
	}
	sort.Slice(stats.TopCompanies, func(i, j int) bool {
		if stats.TopCompanies[i].Count != stats.TopCompanies[j].Count {
			return stats.TopCompanies[i].Count > stats.TopCompanies[j].Count
		}
		return stats.TopCompanies[i].Company < stats.TopCompanies[j].Company
	})
	if len(stats.TopCompanies) > topCompaniesCap {
		stats.TopCompanies = stats.TopCompanies[:topCompaniesCap]
	}

	if stats.JobRelated > 0 {
		stats.ProcessingQuality = math.Round(confidenceSum/float64(stats.JobRelated)*100*10) / 10
	}
	return stats
}
