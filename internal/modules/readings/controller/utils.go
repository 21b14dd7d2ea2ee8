package controller

import (
	"time"

	"radmon-server/internal/modules/readings/types"
	"radmon-server/internal/modules/readings/views"
)

// viewRowLimit caps the dashboard table; the export path has no cap.
const viewRowLimit = 300

const defaultTheme = "light"

var themes = map[string]bool{"light": true, "dark": true}

// parseTheme falls back to the default for anything unrecognized rather than
// rejecting the request.
func parseTheme(s string) string {
	if themes[s] {
		return s
	}
	return defaultTheme
}

var bucketLabels = []struct {
	key   types.Bucket
	label string
}{
	{types.BucketMinute, "Minute"},
	{types.BucketHourly, "Hourly"},
	{types.BucketDaily, "Daily"},
	{types.BucketWeekly, "Weekly"},
	{types.BucketMonthly, "Monthly"},
}

func bucketOptions(selected types.Bucket) []views.BucketOption {
	out := make([]views.BucketOption, 0, len(bucketLabels))
	for _, b := range bucketLabels {
		out = append(out, views.BucketOption{
			Key:      string(b.key),
			Label:    b.label,
			Selected: b.key == selected,
		})
	}
	return out
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func viewRows(rows []types.Reading) []views.ReadingRow {
	out := make([]views.ReadingRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, views.ReadingRow{
			ID:        r.ID,
			Timestamp: r.Timestamp,
			DeviceID:  r.DeviceID,
			CPM:       r.CPM,
			ACPM:      r.ACPM,
			USV:       r.USV,
			Dose:      r.Dose,
		})
	}
	return out
}
