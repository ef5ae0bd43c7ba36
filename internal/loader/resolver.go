package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-exposure-etl/internal/domain"
)

// Resolver maps (DHSID, survey) pairs to daily precipitation series. City
// lists and series are loaded lazily and cached, so all records sharing a
// location reuse one indexed series.
type Resolver struct {
	cityListDir string
	precipDir   string

	cityMaps map[string]map[string]string // survey → DHSID → city id
	series   map[string]*domain.DailySeries
}

// NewResolver creates a resolver over the given city-list and precipitation
// directories.
func NewResolver(cityListDir, precipDir string) *Resolver {
	return &Resolver{
		cityListDir: cityListDir,
		precipDir:   precipDir,
		cityMaps:    make(map[string]map[string]string),
		series:      make(map[string]*domain.DailySeries),
	}
}

// Resolve returns the daily series for a record's location. A missing city
// list or series file is a file-level failure; a DHSID absent from its city
// list returns ErrMappingNotFound for per-record policy handling.
func (r *Resolver) Resolve(dhsid, survey string) (*domain.DailySeries, error) {
	cityMap, err := r.cityMap(survey)
	if err != nil {
		return nil, err
	}

	cityID, ok := cityMap[dhsid]
	if !ok {
		return nil, fmt.Errorf("%w: DHSID %s in survey %s", ErrMappingNotFound, dhsid, survey)
	}

	key := survey + "/" + cityID
	if s, ok := r.series[key]; ok {
		return s, nil
	}

	path := filepath.Join(r.precipDir, cleanSurveyName(survey), cityID+".csv")
	s, err := loadSeries(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: city %s in survey %s: %w", ErrSeriesNotFound, cityID, survey, err)
		}
		return nil, fmt.Errorf("load precipitation series for city %s: %w", cityID, err)
	}
	r.series[key] = s
	return s, nil
}

func (r *Resolver) cityMap(survey string) (map[string]string, error) {
	if m, ok := r.cityMaps[survey]; ok {
		return m, nil
	}

	path := filepath.Join(r.cityListDir, survey+".csv")
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load city list for survey %s: %w", survey, err)
	}

	idCol, ok := header["DHSID"]
	if !ok {
		return nil, fmt.Errorf("city list %s: missing DHSID column", path)
	}
	cityCol, ok := header["city_id"]
	if !ok {
		return nil, fmt.Errorf("city list %s: missing city_id column", path)
	}

	m := make(map[string]string, len(rows))
	for _, row := range rows {
		id := cell(row, idCol)
		city, err := normalizeCityID(cell(row, cityCol))
		if err != nil || id == "" {
			continue
		}
		m[id] = city
	}
	r.cityMaps[survey] = m
	return m, nil
}

// cleanSurveyName normalizes survey names for path resolution. The
// precipitation directories drop the apostrophe from Côte d'Ivoire surveys;
// city lists keep the original name.
func cleanSurveyName(survey string) string {
	return strings.ReplaceAll(survey, "Cote_d'Ivoire", "Cote_dIvoire")
}

// normalizeCityID renders a city id without a decimal part. Some city lists
// store ids as floats ("417.0").
func normalizeCityID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty city id")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", fmt.Errorf("city id %q: %w", raw, err)
	}
	return strconv.Itoa(int(f)), nil
}

// loadSeries reads one per-location daily precipitation CSV ("time", "tp").
func loadSeries(path string) (*domain.DailySeries, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	timeCol, ok := header["time"]
	if !ok {
		return nil, fmt.Errorf("series %s: missing time column", path)
	}
	tpCol, ok := header["tp"]
	if !ok {
		return nil, fmt.Errorf("series %s: missing tp column", path)
	}

	obs := make([]domain.DailyObservation, 0, len(rows))
	for i, row := range rows {
		date, err := ParseDate(cell(row, timeCol))
		if err != nil {
			return nil, fmt.Errorf("series %s row %d: %w", path, i+2, err)
		}
		tp, err := strconv.ParseFloat(strings.TrimSpace(cell(row, tpCol)), 64)
		if err != nil {
			return nil, fmt.Errorf("series %s row %d: bad tp: %w", path, i+2, err)
		}
		obs = append(obs, domain.DailyObservation{Date: date, Precip: tp})
	}
	return domain.NewDailySeries(obs), nil
}
