package calibration

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"bilatcli/pkg/contracts/domain"
)

// ReadTradeStats loads a bilateral trade-flow statistics file. The file is
// CSV with columns year,exporter,importer,commodity,magnitude,unit in any
// order; extra columns are ignored.
func ReadTradeStats(path string) ([]domain.CalibrationRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade statistics %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse trade statistics %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("trade statistics %s: no data rows", path)
	}

	cols, err := headerIndex(records[0], "year", "exporter", "importer", "commodity", "magnitude", "unit")
	if err != nil {
		return nil, fmt.Errorf("trade statistics %s: %w", path, err)
	}

	out := make([]domain.CalibrationRecord, 0, len(records)-1)
	for i, record := range records[1:] {
		year, err := strconv.Atoi(strings.TrimSpace(record[cols["year"]]))
		if err != nil {
			return nil, fmt.Errorf("trade statistics %s row %d: invalid year: %w", path, i+2, err)
		}
		magnitude, err := strconv.ParseFloat(strings.TrimSpace(record[cols["magnitude"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("trade statistics %s row %d: invalid magnitude: %w", path, i+2, err)
		}
		out = append(out, domain.CalibrationRecord{
			Year:      year,
			Exporter:  domain.Node(strings.TrimSpace(record[cols["exporter"]])),
			Importer:  domain.Node(strings.TrimSpace(record[cols["importer"]])),
			Commodity: strings.TrimSpace(record[cols["commodity"]]),
			Magnitude: magnitude,
			Unit:      strings.TrimSpace(record[cols["unit"]]),
		})
	}

	slog.Debug("trade statistics loaded",
		slog.String("path", path),
		slog.Int("records", len(out)))
	return out, nil
}
