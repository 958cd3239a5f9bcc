// Package expiry classifies batches by expiry date and groups overview rows into medicine
// cards for display.
package expiry

import (
	"strings"
	"time"
)

// Status values double as CSS class names in the views.
const (
	StatusNoDate  = "no-date"
	StatusExpired = "expired"
	StatusSoon    = "soon"
	StatusHealthy = "healthy"

	// SoonDays is the inclusive window after today that counts as expiring soon.
	SoonDays = 30

	// Placeholder is shown when a medicine has no dated batch.
	Placeholder = "—"

	isoLayout     = "2006-01-02"
	displayLayout = "02 Jan 2006"
)

var labels = map[string]string{
	StatusNoDate:  "No expiry",
	StatusExpired: "Expired",
	StatusSoon:    "Expiring soon",
	StatusHealthy: "Fresh",
}

// Label returns the human label of a status.
func Label(status string) string {
	return labels[status]
}

// Classification is the derived state of a single expiry value.
type Classification struct {
	Status  string
	Label   string
	Display string
	// Date is set only when the expiry text is a valid ISO calendar date.
	Date *time.Time
}

// ParseDate parses an ISO calendar date. Anything else reports false.
func ParseDate(text string) (time.Time, bool) {
	d, err := time.Parse(isoLayout, strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Classify derives the status of an expiry value relative to today. Unparseable text keeps the
// no-date status but is displayed verbatim.
func Classify(expiry *string, today time.Time) Classification {
	c := Classification{Status: StatusNoDate, Label: labels[StatusNoDate], Display: labels[StatusNoDate]}
	if expiry == nil || *expiry == "" {
		return c
	}
	c.Display = *expiry

	d, ok := ParseDate(*expiry)
	if !ok {
		return c
	}
	c.Date = &d
	c.Display = d.Format(displayLayout)

	day := truncate(today)
	switch {
	case d.Before(day):
		c.Status = StatusExpired
	case !d.After(day.AddDate(0, 0, SoonDays)):
		c.Status = StatusSoon
	default:
		c.Status = StatusHealthy
	}
	c.Label = labels[c.Status]
	return c
}

// NextExpiry returns the earliest parseable expiry among the given values.
func NextExpiry(expiries []*string) (time.Time, bool) {
	var (
		next  time.Time
		found bool
	)
	for _, e := range expiries {
		if e == nil {
			continue
		}
		d, ok := ParseDate(*e)
		if !ok {
			continue
		}
		if !found || d.Before(next) {
			next, found = d, true
		}
	}
	return next, found
}

// truncate drops the clock part while keeping the calendar day of t's location.
func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
