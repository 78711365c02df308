// Command genmock generates synthetic BTsearch exports for trying the converter
// and for test fixtures. Coordinates are drawn at whole-second precision inside
// the given bounding box and the expected decimal values are computed with the
// domain decoders, so the fixture always matches real conversion output.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/btsearch.csv \
//	  -expected data/mock/btsearch_expected.json \
//	  -xlsx data/mock/uke.xlsx \
//	  -n 500 -seed 1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/bts-coords/internal/domain"
)

var header = []string{
	"id", "siec_id", "wojewodztwo_id", "miejscowosc", "lokalizacja",
	"StationId", "RNC_BSC", "LAC", "btsid", "cid1", "cid2", "cid3",
	"cid1_sec", "cid2_sec", "cid3_sec", "standard", "pasmo", "duplex",
	"typ", "bts_lte", "nr_pozwolenia", "data_waznosci", "wysokosc",
	"azymut", domain.DefaultLongitudeColumn, domain.DefaultLatitudeColumn, "uwagi",
}

var (
	networks = []string{"Orange", "Plus", "T-Mobile", "Play"}
	towns    = []string{"Warszawa", "Krakow", "Lodz", "Wroclaw", "Poznan", "Gdansk", "Lublin"}
	systems  = []string{"GSM", "UMTS", "LTE", "5G NR"}
	bands    = []string{"900", "1800", "2100", "800", "2600", "3600"}
)

// bbox bounds generated stations, in decimal degrees.
type bbox struct {
	minLat, maxLat float64
	minLon, maxLon float64
}

type station struct {
	fields []string
	// symbolic UKE spellings of the coordinates, for the workbook
	lonUKE string
	latUKE string
}

// expected is one fixture entry: the converted coordinates for a station id.
type expected struct {
	ID  string `json:"id"`
	Lon string `json:"lon"`
	Lat string `json:"lat"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the BTsearch CSV")
	expectedOut := flag.String("expected", "", "output path for the expected decimal coordinates (JSON)")
	xlsxOut := flag.String("xlsx", "", "optional output path for a UKE-style workbook with symbolic DMS")
	n := flag.Int("n", 100, "number of stations")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" || *expectedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -expected")
	}

	// Poland
	box := bbox{minLat: 49.0, maxLat: 54.8, minLon: 14.1, maxLon: 24.1}
	stations := generate(*n, *seed, box)

	if err := writeCSV(*out, stations); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	log.Printf("wrote %s stations: %s", humanize.Comma(int64(len(stations))), *out)

	want, err := expectedCoordinates(stations)
	if err != nil {
		return fmt.Errorf("computing expected coordinates: %w", err)
	}
	if err := writeJSON(*expectedOut, want); err != nil {
		return fmt.Errorf("writing expected fixture: %w", err)
	}
	log.Printf("wrote expected fixture: %s", *expectedOut)

	if *xlsxOut != "" {
		if err := writeXLSX(*xlsxOut, stations); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		log.Printf("wrote workbook: %s", *xlsxOut)
	}
	return nil
}

func generate(n int, seed uint64, box bbox) []station {
	r := rand.New(rand.NewPCG(seed, seed))
	stations := make([]station, 0, n)
	for i := range n {
		lat := box.minLat + r.Float64()*(box.maxLat-box.minLat)
		lon := box.minLon + r.Float64()*(box.maxLon-box.minLon)

		fields := make([]string, len(header))
		fields[0] = strconv.Itoa(i + 1)
		fields[1] = networks[r.IntN(len(networks))]
		fields[2] = strconv.Itoa(r.IntN(16) + 1)
		fields[3] = towns[r.IntN(len(towns))]
		fields[4] = fmt.Sprintf("ul. Testowa %d", r.IntN(200)+1)
		fields[5] = fmt.Sprintf("%06d", r.IntN(1_000_000))
		fields[7] = strconv.Itoa(r.IntN(65535) + 1)
		fields[8] = strconv.Itoa(r.IntN(99999) + 1)
		fields[15] = systems[r.IntN(len(systems))]
		fields[16] = bands[r.IntN(len(bands))]
		fields[22] = strconv.Itoa(r.IntN(60) + 10)
		fields[domain.DefaultLongitudeIndex] = encodeCompact(lon, 'E', 'W')
		fields[domain.DefaultLatitudeIndex] = encodeCompact(lat, 'N', 'S')

		stations = append(stations, station{
			fields: fields,
			lonUKE: encodeSymbolic(lon, 'E', 'W'),
			latUKE: encodeSymbolic(lat, 'N', 'S'),
		})
	}
	return stations
}

// splitDMS rounds to the nearest whole second.
func splitDMS(v float64) (d, m, s int) {
	total := int(math.Round(math.Abs(v) * 3600))
	return total / 3600, total / 60 % 60, total % 60
}

// encodeCompact writes the BTsearch form, e.g. 21E0155.
func encodeCompact(v float64, pos, neg byte) string {
	d, m, s := splitDMS(v)
	return fmt.Sprintf("%02d%c%02d%02d", d, hemisphere(v, pos, neg), m, s)
}

// encodeSymbolic writes the UKE register form, e.g. 21E01'55".
func encodeSymbolic(v float64, pos, neg byte) string {
	d, m, s := splitDMS(v)
	return fmt.Sprintf("%d%c%02d'%02d\"", d, hemisphere(v, pos, neg), m, s)
}

func hemisphere(v float64, pos, neg byte) byte {
	if v < 0 {
		return neg
	}
	return pos
}

func expectedCoordinates(stations []station) ([]expected, error) {
	out := make([]expected, 0, len(stations))
	for _, s := range stations {
		lon, err := domain.DecodeCompactDMS(s.fields[domain.DefaultLongitudeIndex])
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", s.fields[0], err)
		}
		lat, err := domain.DecodeCompactDMS(s.fields[domain.DefaultLatitudeIndex])
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", s.fields[0], err)
		}
		out = append(out, expected{
			ID:  s.fields[0],
			Lon: domain.FormatDecimal(lon, domain.DefaultPrecision),
			Lat: domain.FormatDecimal(lat, domain.DefaultPrecision),
		})
	}
	return out, nil
}

func writeCSV(path string, stations []station) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(strings.Join(header, ";"))
	b.WriteByte('\n')
	for _, s := range stations {
		b.WriteString(strings.Join(s.fields, ";"))
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o600)
}

func writeXLSX(path string, stations []station) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	rows := make([][]string, 0, len(stations)+1)
	rows = append(rows, header)
	for _, s := range stations {
		row := append([]string(nil), s.fields...)
		row[domain.DefaultLongitudeIndex] = s.lonUKE
		row[domain.DefaultLatitudeIndex] = s.latUKE
		rows = append(rows, row)
	}

	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
