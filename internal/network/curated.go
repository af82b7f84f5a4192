package network

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"bilatcli/internal/config"
	"bilatcli/internal/exporter"
	"bilatcli/pkg/contracts/domain"
)

// curatedColumns is the fixed schema of a curated network file.
var curatedColumns = []string{"exporter", "importer", "include"}

// CuratedRow is one annotated row of a curated network file.
type CuratedRow struct {
	Exporter domain.Node
	Importer domain.Node
	Included bool
}

// writeCuratedTemplate writes a full-edge template with every edge marked
// excluded, ready for annotation.
func writeCuratedTemplate(path string, edges []domain.NetworkEdge) error {
	records := make([][]string, 0, len(edges))
	for _, e := range edges {
		records = append(records, []string{string(e.Exporter), string(e.Importer), config.CuratedExcludeFlag})
	}
	return exporter.NewCSVWriter().WriteSimpleCSV(path, curatedColumns, records)
}

// readCuratedFile parses an annotated curated network file.
func readCuratedFile(path string) ([]CuratedRow, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("curated file %s is empty", path)
	}

	header := records[0]
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range curatedColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("curated file %s is missing column %q", path, required)
		}
	}

	rows := make([]CuratedRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < len(curatedColumns) {
			continue
		}
		flag := strings.ToLower(strings.TrimSpace(record[cols["include"]]))
		rows = append(rows, CuratedRow{
			Exporter: domain.Node(strings.TrimSpace(record[cols["exporter"]])),
			Importer: domain.Node(strings.TrimSpace(record[cols["importer"]])),
			Included: flag == config.CuratedIncludeFlag || flag == "yes" || flag == "1" || flag == "true",
		})
	}
	return rows, nil
}
