package exporter

import (
	"fmt"
	"strconv"

	"bilatcli/pkg/contracts/domain"
)

// Canonical column names shared by template files and audit dumps.
const (
	ColNodeLoc    = "node_loc"
	ColNodeDest   = "node_dest"
	ColNodeRel    = "node_rel"
	ColTechnology = "technology"
	ColCommodity  = "commodity"
	ColLevel      = "level"
	ColMode       = "mode"
	ColTime       = "time"
	ColRelation   = "relation"
	ColYearVtg    = "year_vtg"
	ColYearAct    = "year_act"
	ColYearRel    = "year_rel"
	ColValue      = "value"
	ColUnit       = "unit"
)

// WriteTable renders a ParameterTable to CSV in its declared column order.
// Sentinel year cells are written as the broadcast sentinel so the file stays
// hand-editable.
func (w *CSVWriter) WriteTable(fullPath string, table *domain.ParameterTable) error {
	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			record[i] = Cell(row, col)
		}
		records = append(records, record)
	}
	return w.WriteSimpleCSV(fullPath, table.Columns, records)
}

// StreamTable renders a ParameterTable to CSV row by row, without building
// the full record slice in memory. Expanded tables grow with the square of
// the year axis, so audit dumps stream.
func (w *CSVWriter) StreamTable(fullPath string, table *domain.ParameterTable) error {
	stream, err := w.CreateStreamWriter(fullPath, table.Columns)
	if err != nil {
		return err
	}
	for _, row := range table.Rows {
		record := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			record[i] = Cell(row, col)
		}
		if err := stream.WriteRecord(record); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return stream.Close()
}

// Cell renders one named column of a row as a CSV cell.
func Cell(row domain.ParameterRow, column string) string {
	switch column {
	case ColNodeLoc:
		return string(row.NodeLoc)
	case ColNodeDest:
		return string(row.NodeDest)
	case ColNodeRel:
		return string(row.NodeRel)
	case ColTechnology:
		return row.Technology
	case ColCommodity:
		return row.Commodity
	case ColLevel:
		return row.Level
	case ColMode:
		return row.Mode
	case ColTime:
		return row.Time
	case ColRelation:
		return row.Relation
	case ColYearVtg:
		return row.YearVtg.Cell()
	case ColYearAct:
		return row.YearAct.Cell()
	case ColYearRel:
		return row.YearRel.Cell()
	case ColValue:
		if row.Value == nil {
			return ""
		}
		return strconv.FormatFloat(*row.Value, 'g', -1, 64)
	case ColUnit:
		return row.Unit
	default:
		return ""
	}
}

// SetCell assigns one named column of a row from a CSV cell.
func SetCell(row *domain.ParameterRow, column, cell string) error {
	switch column {
	case ColNodeLoc:
		row.NodeLoc = domain.Node(cell)
	case ColNodeDest:
		row.NodeDest = domain.Node(cell)
	case ColNodeRel:
		row.NodeRel = domain.Node(cell)
	case ColTechnology:
		row.Technology = cell
	case ColCommodity:
		row.Commodity = cell
	case ColLevel:
		row.Level = cell
	case ColMode:
		row.Mode = cell
	case ColTime:
		row.Time = cell
	case ColRelation:
		row.Relation = cell
	case ColYearVtg:
		spec, err := domain.ParseYearSpec(cell)
		if err != nil {
			return err
		}
		row.YearVtg = spec
	case ColYearAct:
		spec, err := domain.ParseYearSpec(cell)
		if err != nil {
			return err
		}
		row.YearAct = spec
	case ColYearRel:
		spec, err := domain.ParseYearSpec(cell)
		if err != nil {
			return err
		}
		row.YearRel = spec
	case ColValue:
		if cell == "" {
			row.Value = nil
			return nil
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return fmt.Errorf("invalid value cell %q: %w", cell, err)
		}
		row.Value = &v
	case ColUnit:
		row.Unit = cell
	default:
		return fmt.Errorf("unknown column %q", column)
	}
	return nil
}
