package calibration

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bilatcli/pkg/contracts/domain"
)

// shippingAliases maps the normalized record fields to the header spellings
// seen across shipping-activity workbooks. Providers rename columns between
// releases, so the reader matches any alias.
var shippingAliases = map[string][]string{
	"year":      {"year", "period"},
	"exporter":  {"exporter", "origin", "load country", "from"},
	"importer":  {"importer", "destination", "discharge country", "to"},
	"commodity": {"commodity", "cargo", "cargo type"},
	"magnitude": {"magnitude", "volume", "quantity", "shipped"},
	"unit":      {"unit", "uom"},
}

// ReadShipping loads a per-route shipping-activity workbook and normalizes
// it to calibration records. The data sheet is located by its header row;
// column positions are mapped dynamically because providers reorder them.
func ReadShipping(path string) ([]domain.CalibrationRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shipping workbook %s: %w", path, err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		headerRow, columnMap := findShippingHeader(rows)
		if headerRow < 0 {
			continue
		}

		records, err := parseShippingRows(path, sheet, rows[headerRow+1:], columnMap)
		if err != nil {
			return nil, err
		}
		slog.Debug("shipping activity loaded",
			slog.String("path", path),
			slog.String("sheet", sheet),
			slog.Int("records", len(records)))
		return records, nil
	}

	return nil, fmt.Errorf("shipping workbook %s: no sheet with a recognizable header", path)
}

// findShippingHeader scans the first rows of a sheet for one containing all
// required columns, and returns its index plus the field-to-column mapping.
func findShippingHeader(rows [][]string) (int, map[string]int) {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		columnMap := make(map[string]int, len(shippingAliases))
		for j, cell := range rows[i] {
			normalized := strings.ToLower(strings.TrimSpace(cell))
			for field, aliases := range shippingAliases {
				if _, taken := columnMap[field]; taken {
					continue
				}
				for _, alias := range aliases {
					if normalized == alias {
						columnMap[field] = j
						break
					}
				}
			}
		}
		if len(columnMap) == len(shippingAliases) {
			return i, columnMap
		}
	}
	return -1, nil
}

func parseShippingRows(path, sheet string, rows [][]string, columnMap map[string]int) ([]domain.CalibrationRecord, error) {
	records := make([]domain.CalibrationRecord, 0, len(rows))
	for i, row := range rows {
		cell := func(field string) string {
			idx := columnMap[field]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if cell("year") == "" {
			// trailing blank or subtotal row
			continue
		}
		year, err := strconv.Atoi(cell("year"))
		if err != nil {
			return nil, fmt.Errorf("shipping workbook %s sheet %s row %d: invalid year %q", path, sheet, i+2, cell("year"))
		}
		magnitude, err := strconv.ParseFloat(strings.ReplaceAll(cell("magnitude"), ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("shipping workbook %s sheet %s row %d: invalid magnitude %q", path, sheet, i+2, cell("magnitude"))
		}
		records = append(records, domain.CalibrationRecord{
			Year:      year,
			Exporter:  domain.Node(cell("exporter")),
			Importer:  domain.Node(cell("importer")),
			Commodity: strings.ToLower(cell("commodity")),
			Magnitude: magnitude,
			Unit:      cell("unit"),
		})
	}
	return records, nil
}
