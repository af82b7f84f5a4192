package calibration

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bilatcli/internal/config"
	"bilatcli/pkg/contracts/domain"
)

// Converter turns raw observed magnitudes (energy content, mass, shipped
// volume) into the model's energy-equivalent unit. Factors are looked up
// per commodity, falling back from node-specific to region-aggregate to
// commodity-aggregate, in that order.
type Converter struct {
	nodeFactors      map[factorKey]float64
	regionFactors    map[factorKey]float64
	commodityFactors map[string]float64
	nodeRegions      map[domain.Node]string
}

type factorKey struct {
	commodity string
	scope     string
}

// NewConverter returns an identity converter: magnitudes are assumed to
// already be in the model unit.
func NewConverter() *Converter {
	return &Converter{
		nodeFactors:      make(map[factorKey]float64),
		regionFactors:    make(map[factorKey]float64),
		commodityFactors: make(map[string]float64),
		nodeRegions:      make(map[domain.Node]string),
	}
}

// LoadConverter reads a conversion-factor file with columns
// commodity,node,region,factor. A row with a node set declares a
// node-specific factor and registers the node's region; a row with only a
// region set declares a region aggregate; a row with neither declares the
// commodity-wide aggregate.
func LoadConverter(path string) (*Converter, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversion factors %s: %w", path, err)
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse conversion factors %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("conversion factors %s: empty file", path)
	}

	cols, err := headerIndex(records[0], "commodity", "node", "region", "factor")
	if err != nil {
		return nil, fmt.Errorf("conversion factors %s: %w", path, err)
	}

	c := NewConverter()
	for i, record := range records[1:] {
		commodity := strings.TrimSpace(record[cols["commodity"]])
		node := strings.TrimSpace(record[cols["node"]])
		region := strings.TrimSpace(record[cols["region"]])
		factor, err := strconv.ParseFloat(strings.TrimSpace(record[cols["factor"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("conversion factors %s row %d: invalid factor: %w", path, i+2, err)
		}

		switch {
		case node != "":
			c.nodeFactors[factorKey{commodity, node}] = factor
			if region != "" {
				c.nodeRegions[domain.Node(node)] = region
			}
		case region != "":
			c.regionFactors[factorKey{commodity, region}] = factor
		default:
			c.commodityFactors[commodity] = factor
		}
	}
	return c, nil
}

// Factor resolves the conversion factor for one node and commodity.
func (c *Converter) Factor(node domain.Node, commodity string) (float64, error) {
	if f, ok := c.nodeFactors[factorKey{commodity, string(node)}]; ok {
		return f, nil
	}
	if region, ok := c.nodeRegions[node]; ok {
		if f, ok := c.regionFactors[factorKey{commodity, region}]; ok {
			return f, nil
		}
	}
	if f, ok := c.commodityFactors[commodity]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("no conversion factor for commodity %s at node %s", commodity, node)
}

// ToEnergy converts a raw observed magnitude at a node into the model's
// energy unit. Records already carrying the model unit pass through.
func (c *Converter) ToEnergy(magnitude float64, unit string, node domain.Node, commodity string) (float64, error) {
	if unit == config.EnergyUnit {
		return magnitude, nil
	}
	factor, err := c.Factor(node, commodity)
	if err != nil {
		return 0, err
	}
	return magnitude * factor, nil
}

// headerIndex maps required column names to their positions in a header row,
// case-insensitive. Extra columns are ignored.
func headerIndex(header []string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return index, nil
}
