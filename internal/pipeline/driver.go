package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/config"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/loader"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/observability"
)

// Input column names expected in every mortality table.
const (
	colDHSID  = "DHSID"
	colSurvey = "DHS_survey"
	colDate   = "death_date_lag_0"
)

// progressEvery controls how often the driver logs row progress inside a
// large file.
const progressEvery = 100

// Driver processes one input table end to end: read, filter by minimum year,
// augment every record, write. Drivers are built fresh per file so workers
// share no state; each re-reads the reference tables it needs.
type Driver struct {
	resolver   *loader.Resolver
	stats      *loader.StatsTable // nil when the pipeline needs no reference stats
	augmenter  Augmenter
	minYear    int
	missPolicy config.MissPolicy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewDriver assembles a file driver.
func NewDriver(resolver *loader.Resolver, stats *loader.StatsTable, augmenter Augmenter,
	minYear int, missPolicy config.MissPolicy, logger *slog.Logger, metrics *observability.Metrics) *Driver {
	return &Driver{
		resolver:   resolver,
		stats:      stats,
		augmenter:  augmenter,
		minYear:    minYear,
		missPolicy: missPolicy,
		logger:     logger,
		metrics:    metrics,
	}
}

// ProcessFile augments one input table and writes the result to outPath.
// Row order in the output matches the input after the minimum-year filter.
func (d *Driver) ProcessFile(ctx context.Context, inPath, outPath string) (rows, filtered, skipped int, err error) {
	start := clock.Now()
	name := filepath.Base(inPath)

	header, records, err := readTable(inPath)
	if err != nil {
		return 0, 0, 0, err
	}

	cols, err := requiredColumns(header)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%s: %w", name, err)
	}

	outHeader := append(append([]string{}, header...), d.augmenter.Columns()...)
	outRows := make([][]string, 0, len(records))

	for i, row := range records {
		select {
		case <-ctx.Done():
			return 0, 0, 0, ctx.Err()
		default:
		}

		ref, err := loader.ParseDate(row[cols.date])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("%s row %d: %w", name, i+2, err)
		}
		if ref.Year() < d.minYear {
			filtered++
			d.metrics.RowsFiltered.Inc()
			continue
		}

		dhsid := row[cols.dhsid]
		survey := row[cols.survey]

		series, err := d.resolver.Resolve(dhsid, survey)
		if err != nil {
			if handled, herr := d.handleMiss(name, i+2, "mapping", err); handled {
				skipped++
				continue
			} else if herr != nil {
				return 0, 0, 0, herr
			}
			return 0, 0, 0, fmt.Errorf("%s row %d: %w", name, i+2, err)
		}

		stats, found := d.stats.Lookup(dhsid)
		values, err := d.augmenter.Augment(ref, series, stats, found)
		if err != nil {
			if handled, herr := d.handleMiss(name, i+2, "stats", err); handled {
				skipped++
				continue
			} else if herr != nil {
				return 0, 0, 0, herr
			}
			return 0, 0, 0, fmt.Errorf("%s row %d: %w", name, i+2, err)
		}

		outRows = append(outRows, append(append([]string{}, row...), values...))
		rows++
		d.metrics.RowsProcessed.Inc()

		if rows%progressEvery == 0 {
			d.logger.Debug("file progress", "file", name, "rows", rows, "total", len(records))
		}
	}

	if err := writeTable(outPath, outHeader, outRows); err != nil {
		return 0, 0, 0, err
	}

	d.metrics.FileDuration.Observe(clock.Since(start).Seconds())
	return rows, filtered, skipped, nil
}

// handleMiss classifies a per-record lookup miss and applies the configured
// policy. It returns handled=true when the record should be skipped. Errors
// other than lookup misses (missing files, malformed tables) never qualify.
func (d *Driver) handleMiss(file string, row int, table string, err error) (handled bool, herr error) {
	if !errors.Is(err, loader.ErrMappingNotFound) && !errors.Is(err, loader.ErrStatsNotFound) {
		return false, nil
	}

	d.metrics.LookupMisses.WithLabelValues(table).Inc()
	if d.missPolicy != config.MissSkipRecord {
		return false, fmt.Errorf("%s row %d: %w", file, row, err)
	}

	d.logger.Warn("lookup miss, skipping record", "file", file, "row", row, "table", table, "error", err)
	d.metrics.RowsSkipped.Inc()
	return true, nil
}

// requiredColumns locates the three mandatory input columns.
type columnIndexes struct {
	dhsid, survey, date int
}

func requiredColumns(header []string) (columnIndexes, error) {
	cols := columnIndexes{dhsid: -1, survey: -1, date: -1}
	for i, name := range header {
		switch name {
		case colDHSID:
			cols.dhsid = i
		case colSurvey:
			cols.survey = i
		case colDate:
			cols.date = i
		}
	}
	switch {
	case cols.dhsid < 0:
		return cols, fmt.Errorf("missing %s column", colDHSID)
	case cols.survey < 0:
		return cols, fmt.Errorf("missing %s column", colSurvey)
	case cols.date < 0:
		return cols, fmt.Errorf("missing %s column", colDate)
	}
	return cols, nil
}

// readTable reads a CSV table preserving header order.
func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("read %s: empty table", path)
	}
	return all[0], all[1:], nil
}

// writeTable writes a CSV table, creating parent directories as needed.
func writeTable(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}
