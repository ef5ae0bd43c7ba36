// Package loader resolves survey locations to daily precipitation series and
// loads the precomputed reference-statistics table.
//
// Resolution is two-step: the per-survey city list maps a record's DHSID to a
// numeric city id, and the city id names the daily series CSV under the
// survey's precipitation directory. Loaded mapping tables and series are
// cached for the lifetime of the resolver; resolvers are not shared across
// worker goroutines, so no locking is needed.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	// ErrMappingNotFound reports a DHSID absent from its survey's city list.
	ErrMappingNotFound = errors.New("location mapping not found")
	// ErrStatsNotFound reports a DHSID absent from the reference-statistics
	// table.
	ErrStatsNotFound = errors.New("reference statistics not found")
	// ErrSeriesNotFound reports a mapped city id with no series file on disk.
	ErrSeriesNotFound = errors.New("precipitation series not found")
	// ErrBadDate reports a date in none of the accepted layouts.
	ErrBadDate = errors.New("unrecognized date")
)

// dateLayouts are tried in order when parsing table dates. The gridded
// product writes plain dates; some survey exports carry a midnight time.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ParseDate parses a table date in any of the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrBadDate, s)
}

// readCSV reads a whole CSV file and returns a header-index map plus the
// data rows.
func readCSV(path string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("read %s: empty table", path)
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[name] = i
	}
	return header, rows[1:], nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
