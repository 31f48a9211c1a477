package model

import (
	"strings"
	"time"
)

// DateLayout is the layout dates are written with (day.month.year).
const DateLayout = "02.01.2006"

// shortDateLayout is accepted on read for rows typed by hand with a 2-digit year.
const shortDateLayout = "02.01.06"

// readLayouts also cover non-padded day/month values.
var readLayouts = []string{DateLayout, "2.1.2006", shortDateLayout, "2.1.06"}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseDate parses text written in either the 4-digit or 2-digit year layout.
// The result is a calendar date at midnight UTC.
func ParseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
