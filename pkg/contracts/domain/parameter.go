package domain

import (
	"fmt"
	"strconv"
)

// BroadcastSentinel is the cell value accepted in year columns of authored
// template files, meaning "expand across all configured years for this axis".
const BroadcastSentinel = "broadcast"

// AxisName names one of the configured year axes.
type AxisName string

const (
	AxisVintage  AxisName = "vintage"
	AxisActivity AxisName = "activity"
)

// YearSpecKind tags the variants of a YearSpec.
type YearSpecKind int

const (
	// YearAbsent means the axis does not apply to this parameter
	YearAbsent YearSpecKind = iota
	// YearFixed holds a concrete year
	YearFixed
	// YearBroadcastAll expands across the axis's default year list
	YearBroadcastAll
	// YearBroadcastFrom expands across an explicitly named axis
	YearBroadcastFrom
)

// YearSpec is the tagged variant for one year column of a parameter row.
// The zero value is YearAbsent.
type YearSpec struct {
	Kind YearSpecKind
	Val  int
	Axis AxisName
}

// FixedYear returns a YearSpec holding a concrete year.
func FixedYear(y int) YearSpec { return YearSpec{Kind: YearFixed, Val: y} }

// BroadcastAll returns a YearSpec expanding over the axis's own year list.
func BroadcastAll() YearSpec { return YearSpec{Kind: YearBroadcastAll} }

// BroadcastFrom returns a YearSpec expanding over the named axis.
func BroadcastFrom(axis AxisName) YearSpec {
	return YearSpec{Kind: YearBroadcastFrom, Axis: axis}
}

// Year returns the concrete year and true when the spec is fixed.
func (s YearSpec) Year() (int, bool) {
	if s.Kind == YearFixed {
		return s.Val, true
	}
	return 0, false
}

// IsBroadcast reports whether the spec still needs expansion.
func (s YearSpec) IsBroadcast() bool {
	return s.Kind == YearBroadcastAll || s.Kind == YearBroadcastFrom
}

// IsAbsent reports whether the axis does not apply.
func (s YearSpec) IsAbsent() bool { return s.Kind == YearAbsent }

// Cell renders the spec as a template-file cell value.
func (s YearSpec) Cell() string {
	switch s.Kind {
	case YearFixed:
		return strconv.Itoa(s.Val)
	case YearBroadcastAll, YearBroadcastFrom:
		return BroadcastSentinel
	default:
		return ""
	}
}

// ParseYearSpec reads a template-file cell into a YearSpec. An empty cell is
// an absent axis; the sentinel string requests broadcasting.
func ParseYearSpec(cell string) (YearSpec, error) {
	switch cell {
	case "":
		return YearSpec{}, nil
	case BroadcastSentinel:
		return BroadcastAll(), nil
	default:
		y, err := strconv.Atoi(cell)
		if err != nil {
			return YearSpec{}, fmt.Errorf("invalid year cell %q: %w", cell, err)
		}
		return FixedYear(y), nil
	}
}

// ParameterRow is one row of a parameter table. Dimension columns that do not
// apply to the parameter are left empty; year columns carry YearSpecs so the
// broadcast state is explicit rather than sniffed from cell contents.
type ParameterRow struct {
	NodeLoc    Node     `json:"node_loc,omitempty"`
	NodeDest   Node     `json:"node_dest,omitempty"`
	NodeRel    Node     `json:"node_rel,omitempty"`
	Technology string   `json:"technology"`
	Commodity  string   `json:"commodity,omitempty"`
	Level      string   `json:"level,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Time       string   `json:"time,omitempty"`
	Relation   string   `json:"relation,omitempty"`
	YearVtg    YearSpec `json:"year_vtg"`
	YearAct    YearSpec `json:"year_act"`
	YearRel    YearSpec `json:"year_rel"`
	Value      *float64 `json:"value,omitempty"`
	Unit       string   `json:"unit,omitempty"`
}

// Float64 returns a pointer to v, for filling ParameterRow values.
func Float64(v float64) *float64 { return &v }

// Clone returns a deep copy of the row.
func (r ParameterRow) Clone() ParameterRow {
	out := r
	if r.Value != nil {
		v := *r.Value
		out.Value = &v
	}
	return out
}

// ParameterTable is an ordered collection of rows for one named parameter and
// one table kind. Columns records the declared schema for the parameter so
// schema mismatches are detectable before loading.
type ParameterTable struct {
	Name    string         `json:"name"`
	Kind    TableKind      `json:"kind"`
	Columns []string       `json:"columns"`
	Rows    []ParameterRow `json:"rows"`
}

// Append adds rows to the table.
func (t *ParameterTable) Append(rows ...ParameterRow) {
	t.Rows = append(t.Rows, rows...)
}

// Len returns the number of rows.
func (t *ParameterTable) Len() int { return len(t.Rows) }

// Clone returns a deep copy of the table.
func (t *ParameterTable) Clone() *ParameterTable {
	out := &ParameterTable{
		Name:    t.Name,
		Kind:    t.Kind,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]ParameterRow, 0, len(t.Rows)),
	}
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, r.Clone())
	}
	return out
}

// Filter returns a new table keeping only rows for which keep returns true.
func (t *ParameterTable) Filter(keep func(ParameterRow) bool) *ParameterTable {
	out := &ParameterTable{Name: t.Name, Kind: t.Kind, Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
