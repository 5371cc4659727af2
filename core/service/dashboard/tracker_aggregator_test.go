package dashboard

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"jobtrack_server/core/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func jobRow(id int64, company string) *domain.EmailRow {
	return &domain.EmailRow{
		ID:           id,
		Subject:      fmt.Sprintf("Update from %s", company),
		Sender:       fmt.Sprintf("recruiting@%s.com", strings.ToLower(company)),
		Date:         testNow.Add(-time.Duration(id) * time.Hour),
		IsJobRelated: true,
		EmailType:    domain.EmailTypeFollowUp,
		Urgency:      domain.UrgencyNormal,
		Company:      company,
		Confidence:   0.9,
	}
}

func TestActivitiesFilterAndOrder(t *testing.T) {
	a := NewAggregator()
	rows := []*domain.EmailRow{
		jobRow(3, "Acme"),
		{ID: 4, Subject: "Newsletter", IsJobRelated: false, Date: testNow},
		nil, // malformed rows are skipped, not fatal
		jobRow(1, "Globex"),
		jobRow(2, "Initech"),
	}

	activities := a.Activities(rows)

	if len(activities) != 3 {
		t.Fatalf("got %d activities, want 3", len(activities))
	}
	for i := 1; i < len(activities); i++ {
		if activities[i].Timestamp.After(activities[i-1].Timestamp) {
			t.Errorf("activities not newest-first at index %d", i)
		}
	}
	if activities[0].Company != "Globex" {
		t.Errorf("newest activity company = %q, want Globex", activities[0].Company)
	}
}

func TestAttentionItemsPerActionItemAndFallback(t *testing.T) {
	a := NewAggregator()

	withActions := jobRow(1, "Acme")
	withActions.Urgency = domain.UrgencyHigh
	withActions.ActionItems = []domain.ActionItemDetail{
		{Task: "Complete assessment", Deadline: "2025-06-17", Priority: "high"},
		{Task: "Update resume", Priority: "low"}, // below threshold, not emitted
		{Task: "Confirm slot", Deadline: "2025-06-16", Priority: "high"},
	}

	fallback := jobRow(2, "Globex")
	fallback.ActionRequired = true
	fallback.Summary = "Recruiter asked for availability"

	ignored := jobRow(3, "Initech") // normal urgency, nothing pending

	urgentNoDate := jobRow(4, "Hooli")
	urgentNoDate.Urgency = domain.UrgencyHigh
	urgentNoDate.ActionItems = []domain.ActionItemDetail{
		{Task: "Reply to recruiter", Priority: "high"},
	}

	normalDated := jobRow(5, "Initrode")
	normalDated.ActionRequired = true
	normalDated.ActionItems = []domain.ActionItemDetail{
		{Task: "Submit references", Deadline: "2025-06-16", Priority: "high"},
	}

	items := a.AttentionItems(
		[]*domain.EmailRow{withActions, fallback, ignored, urgentNoDate, normalDated}, testNow)

	if len(items) != 5 {
		t.Fatalf("got %d items, want 5: %+v", len(items), items)
	}
	// High urgency first; within a tier earlier deadline first, empty last.
	// A dated normal item never outranks an undated high item.
	wantTasks := []string{
		"Confirm slot",        // high, 2025-06-16
		"Complete assessment", // high, 2025-06-17
		"Reply to recruiter",  // high, no deadline
		"Submit references",   // normal, 2025-06-16
	}
	for i, task := range wantTasks {
		if items[i].Task != task {
			t.Errorf("item %d = %q, want %q", i, items[i].Task, task)
		}
	}
	if items[4].Company != "Globex" || items[4].Reason != "action_required" {
		t.Errorf("fallback item = %+v", items[4])
	}
}

func TestAttentionItemsCap(t *testing.T) {
	a := NewAggregator()
	var rows []*domain.EmailRow
	for i := int64(1); i <= 15; i++ {
		row := jobRow(i, fmt.Sprintf("Company%d", i))
		row.Urgency = domain.UrgencyHigh
		rows = append(rows, row)
	}

	items := a.AttentionItems(rows, testNow)

	if len(items) != attentionCap {
		t.Errorf("got %d items, want cap %d", len(items), attentionCap)
	}
}

func TestAttentionDeadlineSoonTrigger(t *testing.T) {
	a := NewAggregator()

	soon := jobRow(1, "Acme")
	soon.KeyInfo = []domain.KeyInfo{
		{Label: "Assessment due", Value: "2025-06-16", InfoType: "deadline"},
	}

	far := jobRow(2, "Globex")
	far.KeyInfo = []domain.KeyInfo{
		{Label: "Assessment due", Value: "2025-07-30", InfoType: "deadline"},
	}

	items := a.AttentionItems([]*domain.EmailRow{soon, far}, testNow)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (only the 48h deadline)", len(items))
	}
	if items[0].Company != "Acme" || items[0].Reason != "deadline_soon" {
		t.Errorf("item = %+v", items[0])
	}
}

func TestCollectEventsDedupAcrossSources(t *testing.T) {
	a := NewAggregator()

	// The same interview seen through the flattened fields, the nested
	// payload and prose text must collapse to one event.
	flat := jobRow(1, "Acme")
	flat.Position = "Backend Engineer"
	flat.InterviewDate = "Thursday, June 19th, 2025"
	flat.InterviewTime = "1:30 PM"
	flat.InterviewPlatform = "Zoom"

	nested := jobRow(2, "Acme")
	nested.Position = "Backend Engineer"
	nested.ExtractedData = &domain.StructuredDataResult{
		InterviewDate: "Thursday, June 19th, 2025",
		InterviewTime: "1:30 PM",
	}

	prose := jobRow(3, "Acme")
	prose.Position = "Backend Engineer"
	prose.Summary = "Your interview via Zoom is on Thursday, June 19th, 2025 at 1:30 PM"

	events := a.collectEvents([]*domain.EmailRow{flat, nested, prose}, testNow, upcomingEventsCap)

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 after dedup: %+v", len(events), events)
	}
	ev := events[0]
	if ev.EventType != domain.EventInterview {
		t.Errorf("event type = %s", ev.EventType)
	}
	if ev.Platform != "Zoom" {
		t.Errorf("platform = %q, want Zoom", ev.Platform)
	}
	want := time.Date(2025, 6, 19, 13, 30, 0, 0, time.UTC)
	if !ev.Date.Equal(want) {
		t.Errorf("date = %v, want %v", ev.Date, want)
	}
}

func TestCollectEventsExcludesPastAndUnparseable(t *testing.T) {
	a := NewAggregator()

	past := jobRow(1, "Acme")
	past.InterviewDate = "2025-06-01" // before testNow

	vague := jobRow(2, "Globex")
	vague.InterviewDate = "sometime soon"

	future := jobRow(3, "Initech")
	future.KeyInfo = []domain.KeyInfo{
		{Label: "Offer response", Value: "2025-06-25", InfoType: "deadline"},
		{Label: "Salary", Value: "$150k", InfoType: "salary"}, // not a deadline
	}

	events := a.collectEvents([]*domain.EmailRow{past, vague, future}, testNow, upcomingEventsCap)

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	if events[0].EventType != domain.EventDeadline || events[0].Label != "Offer response" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestCollectEventsSortedAndCapped(t *testing.T) {
	a := NewAggregator()
	var rows []*domain.EmailRow
	for i := 1; i <= 20; i++ {
		row := jobRow(int64(i), fmt.Sprintf("Company%d", i))
		row.InterviewDate = fmt.Sprintf("2025-07-%02d", i)
		rows = append(rows, row)
	}

	events := a.collectEvents(rows, testNow, upcomingEventsCap)

	if len(events) != upcomingEventsCap {
		t.Fatalf("got %d events, want cap %d", len(events), upcomingEventsCap)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Date.Before(events[i-1].Date) {
			t.Errorf("events not soonest-first at index %d", i)
		}
	}
}

func TestQuickUpdatesSelectionAndCaps(t *testing.T) {
	a := NewAggregator()
	longSummary := strings.Repeat("The team decided to move forward with other candidates. ", 2)

	var rows []*domain.EmailRow
	for i := int64(1); i <= 5; i++ {
		row := jobRow(i, fmt.Sprintf("Rej%d", i))
		row.EmailType = domain.EmailTypeRejection
		row.Summary = longSummary
		rows = append(rows, row)
	}
	terse := jobRow(6, "TerseRej")
	terse.EmailType = domain.EmailTypeRejection
	terse.Summary = "No." // too short to be worth surfacing
	rows = append(rows, terse)

	for i := int64(7); i <= 9; i++ {
		row := jobRow(i, fmt.Sprintf("Offer%d", i))
		row.EmailType = domain.EmailTypeOffer
		rows = append(rows, row)
	}

	urgent := jobRow(10, "NeedsReply")
	urgent.Urgency = domain.UrgencyHigh
	urgent.Summary = "Please respond by Friday"
	rows = append(rows, urgent)

	updates := a.QuickUpdates(rows)

	counts := map[string]int{}
	for _, u := range updates {
		counts[u.UpdateType]++
	}
	if counts["rejection"] != quickRejectionCap {
		t.Errorf("rejections = %d, want %d", counts["rejection"], quickRejectionCap)
	}
	if counts["offer"] != quickOfferCap {
		t.Errorf("offers = %d, want %d", counts["offer"], quickOfferCap)
	}
	if counts["response_needed"] != 1 {
		t.Errorf("responses = %d, want 1", counts["response_needed"])
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Timestamp.After(updates[i-1].Timestamp) {
			t.Errorf("updates not newest-first at index %d", i)
		}
	}
}

func TestStats(t *testing.T) {
	a := NewAggregator()
	rows := []*domain.EmailRow{
		jobRow(1, "Acme"),
		jobRow(2, "Acme"),
		jobRow(3, "Globex"),
		{ID: 4, IsJobRelated: false, Date: testNow},
		nil,
	}
	rows[0].EmailType = domain.EmailTypeInterview
	rows[0].Urgency = domain.UrgencyHigh
	rows[2].Company = "Unknown" // placeholder never ranks

	stats := a.Stats(rows)

	if stats.TotalEmails != 4 {
		t.Errorf("total = %d, want 4", stats.TotalEmails)
	}
	if stats.JobRelated != 3 {
		t.Errorf("job related = %d, want 3", stats.JobRelated)
	}
	if stats.ByType[domain.EmailTypeInterview] != 1 || stats.ByType[domain.EmailTypeFollowUp] != 2 {
		t.Errorf("by type = %v", stats.ByType)
	}
	if len(stats.TopCompanies) != 1 || stats.TopCompanies[0].Company != "Acme" || stats.TopCompanies[0].Count != 2 {
		t.Errorf("top companies = %v", stats.TopCompanies)
	}
	// All three job-related rows carry 0.9 confidence.
	if stats.ProcessingQuality != 90.0 {
		t.Errorf("quality = %v, want 90.0", stats.ProcessingQuality)
	}
}

func TestBuildDashboardShape(t *testing.T) {
	a := NewAggregator()
	data := a.BuildDashboard([]*domain.EmailRow{jobRow(1, "Acme")}, testNow)

	if len(data.EmailActivities) != 1 {
		t.Errorf("activities = %d, want 1", len(data.EmailActivities))
	}
	if data.SummaryStats.TotalEmails != 1 {
		t.Errorf("stats total = %d, want 1", data.SummaryStats.TotalEmails)
	}
}

func TestBuildThreadDashboardRelevance(t *testing.T) {
	a := NewAggregator()

	relevant := &domain.ThreadRow{
		ThreadID:   "t1",
		EmailCount: 3,
		Company:    "Acme",
		LatestEmail: func() *domain.EmailRow {
			r := jobRow(1, "")
			r.IsJobRelated = false // terminal "thanks!" reply
			return r
		}(),
	}
	irrelevant := &domain.ThreadRow{
		ThreadID:    "t2",
		EmailCount:  1,
		Company:     "Unknown",
		LatestEmail: &domain.EmailRow{ID: 2, IsJobRelated: false, Date: testNow},
	}

	data := a.BuildThreadDashboard([]*domain.ThreadRow{relevant, irrelevant, nil}, testNow)

	if len(data.EmailThreads) != 1 {
		t.Fatalf("got %d threads, want 1", len(data.EmailThreads))
	}
	if data.EmailThreads[0].ThreadID != "t1" {
		t.Errorf("thread = %q, want t1", data.EmailThreads[0].ThreadID)
	}
	// Thread-level company flows into the activity.
	if data.EmailThreads[0].Company != "Acme" {
		t.Errorf("company = %q, want Acme", data.EmailThreads[0].Company)
	}
}

func TestRowIDFallback(t *testing.T) {
	withID := &domain.EmailRow{ID: 42}
	if rowID(withID) != "42" {
		t.Errorf("rowID = %q, want 42", rowID(withID))
	}

	withMsgID := &domain.EmailRow{GmailMessageID: "abc"}
	if rowID(withMsgID) != "abc" {
		t.Errorf("rowID = %q, want abc", rowID(withMsgID))
	}

	bare := &domain.EmailRow{Subject: "s", Sender: "x", Date: testNow}
	id1 := rowID(bare)
	id2 := rowID(&domain.EmailRow{Subject: "s", Sender: "x", Date: testNow})
	if id1 == "" || id1 != id2 {
		t.Errorf("hash fallback not stable: %q vs %q", id1, id2)
	}
}
