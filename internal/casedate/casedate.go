// Package casedate parses the loosely formatted date strings found on case
// and news records and renders them in the canonical YYYY-MM-DD form.
package casedate

import (
	"strings"
	"time"
)

// Layout is the canonical storage format for record dates.
const Layout = "2006-01-02"

var layouts = []string{
	Layout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Mon Jan 2 2006",
	"Mon, 02 Jan 2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"2006",
}

// Parse reports the instant described by value, trying the layouts the
// importer has seen in the wild. Dates with an offset are converted to UTC.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), true
		}
	}
	return time.Time{}, false
}

// Normalize returns value in the canonical layout, or false when it cannot
// be parsed.
func Normalize(value string) (string, bool) {
	parsed, ok := Parse(value)
	if !ok {
		return "", false
	}
	return parsed.Format(Layout), true
}

// Today formats now in the canonical layout using UTC, matching the
// behaviour of an ISO timestamp truncated at the date.
func Today(now time.Time) string {
	return now.UTC().Format(Layout)
}
