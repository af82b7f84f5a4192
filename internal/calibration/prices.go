package calibration

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bilatcli/pkg/contracts/domain"
)

// PriceRecord is one observed price point, used to override structural cost
// defaults for historical years.
type PriceRecord struct {
	Year      int
	Node      domain.Node
	Commodity string
	Price     float64
	Unit      string
}

// ReadPrices loads a price-series file with columns
// year,node,commodity,price,unit in any order.
func ReadPrices(path string) ([]PriceRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read price series %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse price series %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("price series %s: no data rows", path)
	}

	cols, err := headerIndex(records[0], "year", "node", "commodity", "price", "unit")
	if err != nil {
		return nil, fmt.Errorf("price series %s: %w", path, err)
	}

	out := make([]PriceRecord, 0, len(records)-1)
	for i, record := range records[1:] {
		year, err := strconv.Atoi(strings.TrimSpace(record[cols["year"]]))
		if err != nil {
			return nil, fmt.Errorf("price series %s row %d: invalid year: %w", path, i+2, err)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[cols["price"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("price series %s row %d: invalid price: %w", path, i+2, err)
		}
		out = append(out, PriceRecord{
			Year:      year,
			Node:      domain.Node(strings.TrimSpace(record[cols["node"]])),
			Commodity: strings.TrimSpace(record[cols["commodity"]]),
			Price:     price,
			Unit:      strings.TrimSpace(record[cols["unit"]]),
		})
	}
	return out, nil
}
