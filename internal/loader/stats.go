package loader

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/domain"
)

// RefStats is one location's row of the reference-statistics table: the
// extreme-precipitation percentile threshold and, when present, the
// historical climatology for the RSD pipeline.
type RefStats struct {
	Threshold    float64
	HasThreshold bool

	Hist    domain.HistStats
	HasHist bool
}

// StatsTable is the global reference-statistics table keyed by DHSID.
type StatsTable struct {
	rows map[string]RefStats
}

// Lookup returns the statistics row for a location, reporting whether one
// exists.
func (t *StatsTable) Lookup(dhsid string) (RefStats, bool) {
	if t == nil {
		return RefStats{}, false
	}
	s, ok := t.rows[dhsid]
	return s, ok
}

// Len reports the number of locations in the table.
func (t *StatsTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// ThresholdColumn names the reference table's threshold column for a given
// percentile. The table drops the dot: 99.9 becomes "p999".
func ThresholdColumn(percentile float64) string {
	return "p" + strings.ReplaceAll(strconv.FormatFloat(percentile, 'g', -1, 64), ".", "")
}

// LoadStatsTable reads the reference-statistics CSV. Expected columns:
// DHSID, the named threshold column, 1_average .. 12_average (mean monthly
// totals), month_std (pooled monthly std), all_average (mean annual total).
// Missing statistic columns degrade the row (HasThreshold/HasHist false)
// rather than failing the load, since not every pipeline needs every column.
func LoadStatsTable(path, thresholdColumn string) (*StatsTable, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load reference statistics: %w", err)
	}

	idCol, ok := header["DHSID"]
	if !ok {
		return nil, fmt.Errorf("reference statistics %s: missing DHSID column", path)
	}

	thresholdCol := colIndex(header, thresholdColumn)
	stdCol := colIndex(header, "month_std")
	annualCol := colIndex(header, "all_average")

	monthCols := make(map[time.Month]int, 12)
	for m := time.January; m <= time.December; m++ {
		monthCols[m] = colIndex(header, fmt.Sprintf("%d_average", int(m)))
	}

	table := &StatsTable{rows: make(map[string]RefStats, len(rows))}
	for _, row := range rows {
		id := cell(row, idCol)
		if id == "" {
			continue
		}

		var s RefStats
		if v, ok := parseCell(row, thresholdCol); ok {
			s.Threshold = v
			s.HasThreshold = true
		}

		std, okStd := parseCell(row, stdCol)
		annual, okAnnual := parseCell(row, annualCol)
		if okStd && okAnnual {
			means := make(map[time.Month]float64, 12)
			for m, idx := range monthCols {
				if v, ok := parseCell(row, idx); ok {
					means[m] = v
				}
			}
			s.Hist = domain.HistStats{MonthlyMean: means, MonthlyStd: std, AnnualMean: annual}
			s.HasHist = true
		}

		table.rows[id] = s
	}
	return table, nil
}

func colIndex(header map[string]int, name string) int {
	if idx, ok := header[name]; ok {
		return idx
	}
	return -1
}

func parseCell(row []string, idx int) (float64, bool) {
	if idx < 0 {
		return 0, false
	}
	raw := strings.TrimSpace(cell(row, idx))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
