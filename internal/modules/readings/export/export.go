// Package export streams filter-matching readings as tabular text. Two
// formats: RFC-4180 CSV with a UTF-8 BOM for spreadsheet compatibility, and
// the historical "xlsx" format, which despite its name and media type is
// tab-separated plain text. Existing automation consumes those exact bytes,
// so the mismatch is kept rather than fixed.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"radmon-server/internal/modules/readings/types"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat recognizes the export selector, case-insensitive and trimmed.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, true
	case "xlsx":
		return FormatXLSX, true
	}
	return "", false
}

// ContentType returns the media type the format is served with.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.ms-excel"
	}
	return "text/csv; charset=utf-8"
}

// Filename stamps an attachment name with the export instant.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("readings-%s.%s", now.UTC().Format("20060102-150405"), f)
}

var header = []string{"Timestamp", "DeviceID", "CPM", "ACPM", "uSv/h", "Dose", "RawData"}

// Write streams the rows in the given order (callers pass latest-id-first).
func Write(w io.Writer, format Format, rows []types.Reading) error {
	if format == FormatXLSX {
		return writeTabSeparated(w, rows)
	}
	return writeCSV(w, rows)
}

func writeCSV(w io.Writer, rows []types.Reading) error {
	// BOM first so spreadsheet imports detect UTF-8.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(project(r, false)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeTabSeparated(w io.Writer, rows []types.Reading) error {
	if _, err := io.WriteString(w, strings.Join(header, "\t")+"\n"); err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := io.WriteString(w, strings.Join(project(r, true), "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func project(r types.Reading, sanitize bool) []string {
	fields := []string{
		r.Timestamp.UTC().Format(types.TimestampLayout),
		r.DeviceID,
		r.CPM,
		r.ACPM,
		r.USV,
		r.Dose,
		r.RawData,
	}
	if !sanitize {
		return fields
	}
	for i, f := range fields {
		fields[i] = sanitizeField(f)
	}
	return fields
}

var lineBreakers = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// sanitizeField keeps one record per line in the tab-separated output.
func sanitizeField(s string) string {
	return strings.TrimSpace(lineBreakers.Replace(s))
}
