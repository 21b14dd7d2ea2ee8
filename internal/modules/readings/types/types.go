package types

import "time"

// TimestampLayout is the canonical text form readings are stored with.
// Lexical order over this layout equals chronological order, which the
// repository relies on for range predicates.
const TimestampLayout = "2006-01-02 15:04:05"

// Reading is one ingested telemetry sample. Telemetry values stay as the
// free-text strings the device sent; numeric coercion happens only at
// aggregation time.
type Reading struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	CPM       string    `json:"cpm"`
	ACPM      string    `json:"acpm"`
	USV       string    `json:"usv"`
	Dose      string    `json:"dose"`
	RawData   string    `json:"raw_data"`
	ClientIP  string    `json:"client_ip"`
}

// DateRange is an optional inclusive timestamp window. A zero From or To
// means that side is unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether no bound is set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Bucket is the aggregation window width for the trend chart.
type Bucket string

const (
	BucketMinute  Bucket = "minute"
	BucketHourly  Bucket = "hourly"
	BucketDaily   Bucket = "daily"
	BucketWeekly  Bucket = "weekly"
	BucketMonthly Bucket = "monthly"
)

// ParseBucket maps a query parameter to a bucket, falling back to minute
// for anything unrecognized.
func ParseBucket(s string) Bucket {
	switch Bucket(s) {
	case BucketMinute, BucketHourly, BucketDaily, BucketWeekly, BucketMonthly:
		return Bucket(s)
	default:
		return BucketMinute
	}
}
