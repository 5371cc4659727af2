// Package dashboard aggregates stored email rows into deduplicated,
// time-windowed dashboard views.
package dashboard

import (
	"regexp"
	"strings"
	"time"
)

// Humans (and LLMs quoting them) write dates every way imaginable; the parser
// normalizes the common noise and then tries a fixed format list, most
// specific first, so "June 19, 2025 1:30 PM" never half-parses as date-only.

var (
	weekdayPrefixRe = regexp.MustCompile(`(?i)^(monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s+`)
	ordinalRe       = regexp.MustCompile(`(\d{1,2})(st|nd|rd|th)\b`)
	tzSuffixRe      = regexp.MustCompile(`(?i)\s+(EST|EDT|CST|CDT|MST|MDT|PST|PDT|UTC|GMT)\s*$`)
)

// dateFormats is ordered: formats carrying a time component come before
// date-only formats.
var dateFormats = []string{
	"January 2, 2006 3:04 PM",
	"January 2, 2006 15:04",
	"January 2 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"2006-01-02 3:04 PM",
	"2006-01-02 15:04",
	"01/02/2006 3:04 PM",
	"01/02/2006 15:04",
	"1/2/2006 3:04 PM",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// ParseFlexible parses a human-written date plus optional time string.
// Returns false when no format matches; callers exclude the item from
// date-based views rather than failing.
func ParseFlexible(dateStr, timeStr string) (time.Time, bool) {
	s := strings.TrimSpace(dateStr + " " + timeStr)
	if s == "" {
		return time.Time{}, false
	}

	s = weekdayPrefixRe.ReplaceAllString(s, "")
	s = ordinalRe.ReplaceAllString(s, "$1")
	s = tzSuffixRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
