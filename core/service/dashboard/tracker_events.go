package dashboard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"jobtrack_server/core/domain"
)

// upcomingEventsCap bounds the flat-email view; the threads variant is
// uncapped but uses the same dedup scheme.
const upcomingEventsCap = 15

var (
	// "Thursday, June 19th, 2025": weekday plus month-day-year, as it
	// appears in interview confirmation prose.
	textDateRe = regexp.MustCompile(`(?i)(monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s+(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}`)
	textTimeRe = regexp.MustCompile(`(?i)\d{1,2}:\d{2}\s*(?:AM|PM)`)
)

// platformMarkers maps substrings found in email text to display names.
var platformMarkers = []struct {
	marker  string
	display string
}{
	{"google meet", "Google Meet"},
	{"zoom", "Zoom"},
	{"teams", "Microsoft Teams"},
}

// interviewSource is one candidate interview found in a row.
type interviewSource struct {
	rawDate  string
	rawTime  string
	platform string
}

// findInterview looks for interview date/time across the three fallback
// sources in priority order: flattened fields, nested extraction payload,
// then regex over the summary/subject text.
func findInterview(row *domain.EmailRow) (interviewSource, bool) {
	if row.InterviewDate != "" {
		return interviewSource{
			rawDate:  row.InterviewDate,
			rawTime:  row.InterviewTime,
			platform: row.InterviewPlatform,
		}, true
	}

	if nested := row.ExtractedData; nested != nil && nested.InterviewDate != "" {
		return interviewSource{
			rawDate:  nested.InterviewDate,
			rawTime:  nested.InterviewTime,
			platform: nested.InterviewPlatform,
		}, true
	}

	text := row.Summary + " " + row.Subject
	if date := textDateRe.FindString(text); date != "" {
		src := interviewSource{rawDate: date}
		if t := textTimeRe.FindString(text); t != "" {
			src.rawTime = t
		}
		src.platform = inferPlatform(text)
		return src, true
	}

	return interviewSource{}, false
}

func inferPlatform(text string) string {
	lower := strings.ToLower(text)
	for _, p := range platformMarkers {
		if strings.Contains(lower, p.marker) {
			return p.display
		}
	}
	return ""
}

// interviewKey builds the per-call dedup key: the same logical interview seen
// through different source rows must collapse to one event.
func interviewKey(company, position, rawDate string) string {
	return fmt.Sprintf("interview_%s_%s_%s", company, position, rawDate)
}

func deadlineKey(company, label, rawDate string) string {
	return fmt.Sprintf("deadline_%s_%s_%s", company, label, rawDate)
}

// collectEvents extracts future-dated interviews and key-info deadlines from
// rows, deduplicating within the call. capAt <= 0 means unbounded.
func (a *Aggregator) collectEvents(rows []*domain.EmailRow, now time.Time, capAt int) []domain.UpcomingEvent {
	seen := make(map[string]struct{})
	var events []domain.UpcomingEvent

	for _, row := range rows {
		if row == nil {
			a.log.Warn("skipping malformed row in upcoming events")
			continue
		}
		if !row.IsJobRelated {
			continue
		}

		if src, ok := findInterview(row); ok {
			if parsed, ok := ParseFlexible(src.rawDate, src.rawTime); ok && parsed.After(now) {
				key := interviewKey(row.Company, row.Position, src.rawDate)
				if _, dup := seen[key]; !dup {
					seen[key] = struct{}{}
					events = append(events, domain.UpcomingEvent{
						Key:       key,
						EventType: domain.EventInterview,
						Company:   row.Company,
						Position:  row.Position,
						Label:     "Interview",
						Date:      parsed,
						RawDate:   src.rawDate,
						Platform:  src.platform,
					})
				}
			}
		}

		for _, info := range row.KeyInfo {
			if info.InfoType != "deadline" {
				continue
			}
			parsed, ok := ParseFlexible(info.Value, "")
			if !ok || !parsed.After(now) {
				continue
			}
			key := deadlineKey(row.Company, info.Label, info.Value)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			events = append(events, domain.UpcomingEvent{
				Key:       key,
				EventType: domain.EventDeadline,
				Company:   row.Company,
				Position:  row.Position,
				Label:     info.Label,
				Date:      parsed,
				RawDate:   info.Value,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	if capAt > 0 && len(events) > capAt {
		events = events[:capAt]
	}
	return events
}
