package service

import (
	"strings"
	"time"

	"radmon-server/internal/modules/readings/types"
)

const dateLayout = "2006-01-02"

// ParseDateRange turns the f_timestamp_from / f_timestamp_to parameters into
// an inclusive range: the from date at 00:00:00 UTC, the to date at 23:59:59
// UTC. A side that does not parse as YYYY-MM-DD is treated as absent, not as
// an error; devices and bookmarked URLs send all sorts of garbage.
func ParseDateRange(fromText, toText string) types.DateRange {
	var r types.DateRange
	if d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(fromText), time.UTC); err == nil {
		r.From = d
	}
	if d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(toText), time.UTC); err == nil {
		r.To = d.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return r
}
