// Command validate performs end-to-end integrity checks on pipeline output:
// row provenance against the input tables, the minimum-year filter, and the
// internal consistency of each pipeline's derived columns (annual totals,
// cumulative sums, positive/negative splits).
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input-dir data/pf_result \
//	  -output-dir data/results
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const tolerance = 1e-9

var kindOrder = []string{"extreme", "rsd", "wet days"}

var kindSubdirs = map[string]string{
	"extreme":  "pf_p999_results",
	"rsd":      "pf_rsd_results",
	"wet days": "pf_wetdays_results",
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	inputDir := flag.String("input-dir", "", "directory containing the input mortality tables")
	outputDir := flag.String("output-dir", "", "base directory containing the per-pipeline result subdirectories")
	minYear := flag.Int("min-year", 1981, "minimum reference year the pipelines filter on")
	lookback := flag.Int("lookback", 12, "number of lookback months the pipelines computed")
	flag.Parse()

	if *inputDir == "" || *outputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*inputDir, *outputDir, *minYear, *lookback); code != 0 {
		os.Exit(code)
	}
}

func run(inputDir, outputDir string, minYear, lookback int) int {
	fmt.Println("=== Exposure Pipeline Integrity Validation ===")
	fmt.Println()

	inputs, err := loadTables(inputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load input tables: %v\n", err)
		return 1
	}

	outputs := map[string]map[string]table{}
	for _, kind := range kindOrder {
		dir := filepath.Join(outputDir, kindSubdirs[kind])
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Printf("  (no %s output at %s, skipping)\n", kind, dir)
			continue
		}
		tables, err := loadTables(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load %s output: %v\n", kind, err)
			return 1
		}
		outputs[kind] = tables
	}
	if len(outputs) == 0 {
		fmt.Fprintln(os.Stderr, "FATAL: no pipeline output found")
		return 1
	}

	var phases []*phase
	for _, kind := range kindOrder {
		if tables, ok := outputs[kind]; ok {
			phases = append(phases, validateProvenance(kind, tables, inputs, minYear))
		}
	}
	if tables, ok := outputs["extreme"]; ok {
		phases = append(phases, validateExtreme(tables, lookback))
	}
	if tables, ok := outputs["rsd"]; ok {
		phases = append(phases, validateRSD(tables, lookback))
	}
	if tables, ok := outputs["wet days"]; ok {
		phases = append(phases, validateWetDays(tables, lookback))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-46s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Tables: %d input", len(inputs))
	for _, kind := range kindOrder {
		if tables, ok := outputs[kind]; ok {
			fmt.Printf(", %d %s", len(tables), kind)
		}
	}
	fmt.Println()

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Table loading ──

// table is a parsed CSV table with column indexes by header name.
type table struct {
	header []string
	cols   map[string]int
	rows   [][]string
}

func (t table) cell(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func loadTables(dir string) (map[string]table, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	tables := make(map[string]table, len(paths))
	for _, path := range paths {
		t, err := loadTable(path)
		if err != nil {
			return nil, err
		}
		tables[filepath.Base(path)] = t
	}
	return tables, nil
}

func loadTable(path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	all, err := r.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(all) == 0 {
		return table{}, fmt.Errorf("%s: empty table", path)
	}

	cols := make(map[string]int, len(all[0]))
	for i, h := range all[0] {
		cols[h] = i
	}
	return table{header: all[0], cols: cols, rows: all[1:]}, nil
}

// ── Phase: Provenance ──
// Every output row must come from the matching input table, in input order,
// with the original column values untouched. Rows from years before the
// minimum must never appear.

func validateProvenance(kind string, outputs, inputs map[string]table, minYear int) *phase {
	p := &phase{name: fmt.Sprintf("Provenance: %s output vs input", kind)}

	for name, out := range outputs {
		in, ok := inputs[name]
		if !ok {
			p.errorf("%s: no matching input table", name)
			continue
		}
		checkProvenance(p, name, in, out, minYear)
	}
	return p
}

func checkProvenance(p *phase, name string, in, out table, minYear int) {
	for _, col := range in.header {
		if _, ok := out.cols[col]; !ok {
			p.errorf("%s: output dropped input column %q", name, col)
			return
		}
	}

	// Output rows must be an order-preserving subsequence of the input.
	next := 0
	for oi, outRow := range out.rows {
		matched := false
		for ; next < len(in.rows); next++ {
			if rowsMatch(in, out, in.rows[next], outRow) {
				matched = true
				next++
				break
			}
		}
		if !matched {
			p.errorf("%s output row %d: no matching input row in order (DHSID=%s, date=%s)",
				name, oi+2, out.cell(outRow, "DHSID"), out.cell(outRow, "death_date_lag_0"))
			return
		}

		date := out.cell(outRow, "death_date_lag_0")
		if len(date) >= 4 {
			if year, err := strconv.Atoi(date[:4]); err == nil && year < minYear {
				p.errorf("%s output row %d: year %d precedes minimum %d", name, oi+2, year, minYear)
			}
		}
	}
}

func rowsMatch(in, out table, inRow, outRow []string) bool {
	for _, col := range in.header {
		if in.cell(inRow, col) != out.cell(outRow, col) {
			return false
		}
	}
	return true
}

// ── Phase: Extreme precipitation ──

func validateExtreme(outputs map[string]table, lookback int) *phase {
	p := &phase{name: "Consistency: extreme precipitation"}

	for name, t := range outputs {
		for ri, row := range t.rows {
			pf := func(format string, args ...any) {
				p.errorf("%s row %d: "+format, append([]any{name, ri + 2}, args...)...)
			}

			var sumDays int
			var sumExcess float64
			for m := 1; m <= lookback; m++ {
				days := intField(t, row, fmt.Sprintf("p999_days_%d", m), pf)
				excess := floatField(t, row, fmt.Sprintf("p999_excess_%d", m), pf)
				intensity := floatField(t, row, fmt.Sprintf("p999_intensity_%d", m), pf)

				if days < 0 {
					pf("p999_days_%d is negative: %d", m, days)
				}
				if excess < 0 {
					pf("p999_excess_%d is negative: %g", m, excess)
				}
				if intensity < 0 {
					pf("p999_intensity_%d is negative: %g", m, intensity)
				}
				if excess == 0 && intensity != 0 {
					pf("p999_intensity_%d is %g with zero excess", m, intensity)
				}
				sumDays += days
				sumExcess += excess
			}

			if annual := intField(t, row, "p999_annual_days", pf); annual != sumDays {
				pf("p999_annual_days %d != sum of monthly days %d", annual, sumDays)
			}
			if annual := floatField(t, row, "p999_annual_excess", pf); !floatEq(annual, sumExcess) {
				pf("p999_annual_excess %g != sum of monthly excess %g", annual, sumExcess)
			}
		}
	}
	return p
}

// ── Phase: Standardized rainfall deviation ──

func validateRSD(outputs map[string]table, lookback int) *phase {
	p := &phase{name: "Consistency: standardized rainfall deviation"}

	for name, t := range outputs {
		for ri, row := range t.rows {
			pf := func(format string, args ...any) {
				p.errorf("%s row %d: "+format, append([]any{name, ri + 2}, args...)...)
			}

			var running float64
			var last float64
			for m := 1; m <= lookback; m++ {
				running += floatField(t, row, fmt.Sprintf("rsd_month_%d", m), pf)
				cumulative := floatField(t, row, fmt.Sprintf("rsd_cumulative_%d", m), pf)
				if !floatEq(cumulative, running) {
					pf("rsd_cumulative_%d %g != running sum %g", m, cumulative, running)
				}
				last = cumulative
			}

			annual := floatField(t, row, "rsd_annual", pf)
			if !floatEq(annual, last) {
				pf("rsd_annual %g != rsd_cumulative_%d %g", annual, lookback, last)
			}

			positive := floatField(t, row, "rsd_positive", pf)
			negative := floatField(t, row, "rsd_negative", pf)
			wantPos, wantNeg := math.Max(annual, 0), math.Min(annual, 0)
			if !floatEq(positive, wantPos) {
				pf("rsd_positive %g != %g for annual %g", positive, wantPos, annual)
			}
			if !floatEq(negative, wantNeg) {
				pf("rsd_negative %g != %g for annual %g", negative, wantNeg, annual)
			}
		}
	}
	return p
}

// ── Phase: Wet days ──

func validateWetDays(outputs map[string]table, lookback int) *phase {
	p := &phase{name: "Consistency: wet days"}

	for name, t := range outputs {
		for ri, row := range t.rows {
			pf := func(format string, args ...any) {
				p.errorf("%s row %d: "+format, append([]any{name, ri + 2}, args...)...)
			}

			var sum int
			for m := 1; m <= lookback; m++ {
				n := intField(t, row, fmt.Sprintf("wet_days_%d", m), pf)
				if n < 0 {
					pf("wet_days_%d is negative: %d", m, n)
				}
				sum += n
			}
			if annual := intField(t, row, "wet_days_annual", pf); annual != sum {
				pf("wet_days_annual %d != sum of monthly counts %d", annual, sum)
			}
		}
	}
	return p
}

// ── Helpers ──

func floatField(t table, row []string, col string, pf func(string, ...any)) float64 {
	raw := t.cell(row, col)
	if raw == "" {
		pf("missing column %q", col)
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		pf("column %q: %v", col, err)
		return 0
	}
	return v
}

func intField(t table, row []string, col string, pf func(string, ...any)) int {
	raw := t.cell(row, col)
	if raw == "" {
		pf("missing column %q", col)
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		pf("column %q: %v", col, err)
		return 0
	}
	return v
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}
