package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/munigraph-cli/internal/model"
)

// CleanFlows rewrites the intermunicipal origin-destination CSV for graph
// consumption: the date column is dropped (the matrix is a static snapshot)
// and the source's `.` placeholder inside codes becomes `0`, restoring
// valid municipality codes.
func CleanFlows(inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return eris.Wrap(err, "ingest: open flows CSV")
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(outPath)
	if err != nil {
		return eris.Wrap(err, "ingest: create cleaned flows CSV")
	}
	defer out.Close() //nolint:errcheck

	reader := csv.NewReader(in)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return eris.Wrap(err, "ingest: read flows header")
	}

	dateIdx := -1
	kept := make([]string, 0, len(header))
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "date") {
			dateIdx = i
			continue
		}
		kept = append(kept, h)
	}
	cols := headerIndex(header)
	fromIdx, okFrom := cols["from"]
	toIdx, okTo := cols["to"]
	if !okFrom || !okTo {
		return eris.New("ingest: flows CSV is missing from/to columns")
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(kept); err != nil {
		return eris.Wrap(err, "ingest: write flows header")
	}

	var rows int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}

		record[fromIdx] = strings.ReplaceAll(record[fromIdx], ".", "0")
		record[toIdx] = strings.ReplaceAll(record[toIdx], ".", "0")

		cleaned := make([]string, 0, len(kept))
		for i, v := range record {
			if i == dateIdx {
				continue
			}
			cleaned = append(cleaned, v)
		}
		if err := writer.Write(cleaned); err != nil {
			return eris.Wrap(err, "ingest: write flows row")
		}
		rows++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return eris.Wrap(err, "ingest: flush cleaned flows")
	}

	zap.L().Info("flows cleaned", zap.String("out", outPath), zap.Int("rows", rows))
	return nil
}

// Flows reads a cleaned flow CSV into directional edges. A missing or
// unparseable distance column yields a zero distance, which the flows
// builder fills from the great-circle computation.
func Flows(path string) ([]model.Edge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open cleaned flows")
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read cleaned flows header")
	}
	cols := headerIndex(header)
	if _, ok := cols["from"]; !ok {
		return nil, eris.New("ingest: cleaned flows CSV is missing the from column")
	}
	if _, ok := cols["to"]; !ok {
		return nil, eris.New("ingest: cleaned flows CSV is missing the to column")
	}

	var edges []model.Edge
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		from := col(record, cols, "from")
		to := col(record, cols, "to")
		if from == "" || to == "" {
			continue
		}

		var distance float64
		if raw := col(record, cols, "distance"); raw != "" {
			if d, err := strconv.ParseFloat(raw, 64); err == nil {
				distance = d
			}
		}

		edges = append(edges, model.Edge{From: from, To: to, Distance: distance})
	}

	zap.L().Info("flows loaded", zap.Int("edges", len(edges)))
	return edges, nil
}
