// Command genfixtures generates a synthetic data tree for exercising the
// exposure pipelines end to end: per-location daily precipitation series,
// survey city lists, mortality input tables, and a reference-statistics
// table computed from the generated series with the actual domain package,
// so pipeline output can be checked against first-principles math.
//
// Usage:
//
//	go run ./cmd/genfixtures -out data -locations 4 -rows 60 -seed 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/domain"
	"github.com/couchcryptid/rainfall-exposure-etl/internal/loader"
)

// Surveys cover both naming conventions: plain names and the Côte d'Ivoire
// apostrophe, whose precipitation directory drops the quote.
var surveys = []string{"Kenya_2014", "Cote_d'Ivoire_2012"}

const (
	seriesFromYear = 1980
	seriesToYear   = 2021
	histFromYear   = 1980
	histToYear     = 2020
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "base output directory for the data tree")
	locations := flag.Int("locations", 4, "locations per survey")
	rows := flag.Int("rows", 60, "mortality rows per survey")
	seed := flag.Int64("seed", 1, "random seed")
	percentile := flag.Float64("percentile", 99.9, "extreme-precipitation percentile for the reference table")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewSource(*seed)) //nolint:gosec // fixture generation

	type statsRow struct {
		dhsid     string
		threshold float64
		hist      domain.HistStats
	}
	var statsRows []statsRow //nolint:prealloc // size depends on flags

	for si, survey := range surveys {
		cityRows := [][]string{{"DHSID", "city_id"}}
		var dhsids []string

		for li := 0; li < *locations; li++ {
			cityID := 100*(si+1) + li
			dhsid := fmt.Sprintf("LOC%d%04d", si+1, li)
			dhsids = append(dhsids, dhsid)

			obs := generateSeries(rng, si, li)
			path := filepath.Join(*out, "precip_csv", cleanSurveyName(survey), strconv.Itoa(cityID)+".csv")
			if err := writeSeries(path, obs); err != nil {
				return fmt.Errorf("writing series for %s: %w", dhsid, err)
			}

			// Some city lists store ids as floats; alternate to cover both.
			id := strconv.Itoa(cityID)
			if li%2 == 1 {
				id += ".0"
			}
			cityRows = append(cityRows, []string{dhsid, id})

			series := domain.NewDailySeries(obs)
			values := make([]float64, 0, len(obs))
			for _, o := range obs {
				values = append(values, o.Precip)
			}
			statsRows = append(statsRows, statsRow{
				dhsid:     dhsid,
				threshold: quantile(values, *percentile/100),
				hist:      domain.ComputeHistStats(series, histFromYear, histToYear),
			})
		}

		cityPath := filepath.Join(*out, "city_list", survey+".csv")
		if err := writeCSV(cityPath, cityRows); err != nil {
			return fmt.Errorf("writing city list for %s: %w", survey, err)
		}
		log.Printf("%s: %d locations", survey, *locations)

		inputPath := filepath.Join(*out, "pf_result", survey+".csv")
		if err := writeInputTable(inputPath, rng, survey, dhsids, *rows); err != nil {
			return fmt.Errorf("writing input table for %s: %w", survey, err)
		}
		log.Printf("%s: %d mortality rows", survey, *rows)
	}

	statsPath := filepath.Join(*out, "all_points_dhs_prep.csv")
	statsTable := [][]string{statsHeader(*percentile)}
	for _, r := range statsRows {
		statsTable = append(statsTable, statsLine(r.dhsid, r.threshold, r.hist))
	}
	if err := writeCSV(statsPath, statsTable); err != nil {
		return fmt.Errorf("writing reference statistics: %w", err)
	}
	log.Printf("wrote reference statistics: %s (%d locations)", statsPath, len(statsRows))

	return nil
}

// generateSeries produces one location's daily precipitation from 1980
// through 2021: a seasonal wet/dry cycle offset per location, dry days,
// exponential rain amounts, and rare order-of-magnitude extremes so the
// high percentile threshold is actually exceeded somewhere.
func generateSeries(rng *rand.Rand, surveyIdx, locIdx int) []domain.DailyObservation {
	start := time.Date(seriesFromYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(seriesToYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	phase := float64(surveyIdx*3+locIdx) * 0.7
	var obs []domain.DailyObservation //nolint:prealloc // bounded by the date range

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		seasonal := 3 + 2.5*math.Sin(2*math.Pi*float64(d.YearDay())/365+phase)

		var tp float64
		switch {
		case rng.Float64() < 0.55: // dry day
			tp = 0
		case rng.Float64() < 0.003: // extreme event
			tp = seasonal * (15 + 10*rng.ExpFloat64())
		default:
			tp = seasonal * rng.ExpFloat64()
		}
		obs = append(obs, domain.DailyObservation{Date: d, Precip: tp})
	}
	return obs
}

func writeInputTable(path string, rng *rand.Rand, survey string, dhsids []string, n int) error {
	rows := [][]string{{"DHSID", "DHS_survey", "death_date_lag_0", "child_alive"}}
	for i := 0; i < n; i++ {
		dhsid := dhsids[rng.Intn(len(dhsids))]

		// A few pre-1981 dates exercise the minimum-year filter.
		year := 1982 + rng.Intn(2020-1982)
		if i%17 == 0 {
			year = 1975 + rng.Intn(6)
		}
		date := time.Date(year, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)

		alive := "1"
		if rng.Float64() < 0.08 {
			alive = "0"
		}
		rows = append(rows, []string{dhsid, survey, date.Format("2006-01-02"), alive})
	}
	return writeCSV(path, rows)
}

func writeSeries(path string, obs []domain.DailyObservation) error {
	rows := make([][]string, 0, len(obs)+1)
	rows = append(rows, []string{"time", "tp"})
	for _, o := range obs {
		rows = append(rows, []string{o.Date.Format("2006-01-02"), formatFloat(o.Precip)})
	}
	return writeCSV(path, rows)
}

func statsHeader(percentile float64) []string {
	header := []string{"DHSID", loader.ThresholdColumn(percentile)}
	for m := 1; m <= 12; m++ {
		header = append(header, fmt.Sprintf("%d_average", m))
	}
	return append(header, "month_std", "all_average")
}

func statsLine(dhsid string, threshold float64, hist domain.HistStats) []string {
	row := []string{dhsid, formatFloat(threshold)}
	for m := time.January; m <= time.December; m++ {
		row = append(row, formatFloat(hist.MonthlyMean[m]))
	}
	return append(row, formatFloat(hist.MonthlyStd), formatFloat(hist.AnnualMean))
}

// quantile computes the q-th quantile (0..1) with linear interpolation
// between closest ranks, matching the reference table's construction.
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// cleanSurveyName mirrors the resolver's path normalization: precipitation
// directories drop the apostrophe from Côte d'Ivoire survey names.
func cleanSurveyName(survey string) string {
	return strings.ReplaceAll(survey, "Cote_d'Ivoire", "Cote_dIvoire")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
