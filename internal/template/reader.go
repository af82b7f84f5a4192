package template

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"bilatcli/internal/config"
	"bilatcli/internal/errors"
	"bilatcli/internal/exporter"
	"bilatcli/pkg/contracts/domain"
)

// Reader loads authored template files back into parameter tables, validating
// their columns against the declared schema.
type Reader struct {
	paths *config.Paths
}

// NewReader creates a template reader over the configured path layout.
func NewReader(paths *config.Paths) *Reader {
	return &Reader{paths: paths}
}

// Read loads the authored template for one parameter of one technology. The
// file's column set must match the declared schema exactly; column order is
// free because users reorder columns in spreadsheet tools.
func (r *Reader) Read(tech domain.Technology, parameter string) (*domain.ParameterTable, error) {
	path := r.paths.TemplatePath(tech.Name, parameter)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("template %s is empty", path)
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	table := &domain.ParameterTable{
		Name:    parameter,
		Kind:    tableKind(tech),
		Columns: header,
	}
	if err := ValidateColumns(tech.Name, table); err != nil {
		return nil, err
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("template %s row %d has %d cells, want %d", path, i+2, len(record), len(header))
		}
		var row domain.ParameterRow
		for j, col := range header {
			if err := exporter.SetCell(&row, col, strings.TrimSpace(record[j])); err != nil {
				return nil, errors.WrapError(err, tech.Name,
					fmt.Sprintf("template %s row %d column %s", parameter, i+2, col))
			}
		}
		table.Append(row)
	}

	return table, nil
}
