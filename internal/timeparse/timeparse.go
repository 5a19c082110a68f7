// Package timeparse turns loose user-supplied date/time strings into
// time.Time values for the query window flags.
package timeparse

import (
	"time"

	cliErrors "gcloud-logs/internal/errors"
)

// zonedLayouts carry their own offset and ignore the --utc flag.
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
}

// nakedLayouts have no zone; they resolve to local time, or UTC under --utc.
var nakedLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// clockLayouts name only a time of day, resolved against today's date.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
}

// Parse interprets value as a point in time. utc controls the zone assumed
// for inputs that do not carry one, mirroring the original --utc flag. flag
// names the originating CLI flag for the error message.
func Parse(flag, value string, utc bool) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	loc := time.Local
	if utc {
		loc = time.UTC
	}

	for _, layout := range nakedLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			now := time.Now().In(loc)
			return time.Date(now.Year(), now.Month(), now.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, cliErrors.NewTimeParseError(flag, value)
}
