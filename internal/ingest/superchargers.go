package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/model"
)

// Supercharger is one row of the charger registry, reduced to the fields
// the join needs.
type Supercharger struct {
	Name  string
	City  string
	State string
}

// Superchargers reads the registry CSV and keeps the Mexico rows. Expected
// columns: Supercharger, City, State, Country. Column order is free; the
// header decides.
func Superchargers(path string) ([]Supercharger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open superchargers CSV")
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read superchargers header")
	}
	cols := headerIndex(header)

	var out []Supercharger
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		if !strings.EqualFold(col(record, cols, "country"), "Mexico") {
			continue
		}
		out = append(out, Supercharger{
			Name:  col(record, cols, "supercharger"),
			City:  col(record, cols, "city"),
			State: col(record, cols, "state"),
		})
	}

	zap.L().Info("superchargers loaded", zap.Int("mexico_rows", len(out)))
	return out, nil
}

// SuperchargersFromXLSX reads the registry workbook export. Sheet 0, first
// row is the header, same columns as the CSV.
func SuperchargersFromXLSX(path string) ([]Supercharger, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open superchargers XLSX")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: superchargers XLSX has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("ingest: superchargers XLSX sheet is empty")
	}

	header := make([]string, 0, len(sheet.Rows[0].Cells))
	for _, cell := range sheet.Rows[0].Cells {
		header = append(header, cell.String())
	}
	cols := headerIndex(header)

	var out []Supercharger
	for _, row := range sheet.Rows[1:] {
		record := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			record = append(record, cell.String())
		}
		if !strings.EqualFold(col(record, cols, "country"), "Mexico") {
			continue
		}
		out = append(out, Supercharger{
			Name:  col(record, cols, "supercharger"),
			City:  col(record, cols, "city"),
			State: col(record, cols, "state"),
		})
	}

	zap.L().Info("superchargers loaded from workbook", zap.Int("mexico_rows", len(out)))
	return out, nil
}

// MarkSuperchargers flags every municipality whose state-qualified,
// accent-folded name matches a supercharger row. Duplicate municipality
// names within a state all get flagged, matching how the source data was
// labeled by hand. Returns the charger rows that matched nothing.
func MarkSuperchargers(munis map[string]*model.Municipality, chargers []Supercharger) []Supercharger {
	byKey := make(map[string][]*model.Municipality, len(munis))
	for _, m := range munis {
		key := joinKey(m.State, m.Name)
		byKey[key] = append(byKey[key], m)
	}

	log := zap.L().With(zap.String("component", "ingest.superchargers"))

	var unmatched []Supercharger
	var flagged int
	for _, sc := range chargers {
		matches, ok := byKey[joinKey(sc.State, sc.City)]
		if !ok {
			log.Warn("supercharger city not found in municipalities",
				zap.String("state", sc.State),
				zap.String("city", sc.City),
			)
			unmatched = append(unmatched, sc)
			continue
		}
		for _, m := range matches {
			if !m.HasSupercharger {
				flagged++
			}
			m.HasSupercharger = true
		}
	}

	log.Info("supercharger join complete",
		zap.Int("flagged", flagged),
		zap.Int("unmatched", len(unmatched)),
	)
	return unmatched
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func col(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
