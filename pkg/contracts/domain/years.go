package domain

import "sort"

// YearAxis holds the configured vintage and activity year lists. Both lists
// are ordered ascending and treated as immutable after loading.
type YearAxis struct {
	Vintage  []int `yaml:"vintage" json:"vintage" validate:"required,min=1"`
	Activity []int `yaml:"activity" json:"activity" validate:"required,min=1"`
}

// NewYearAxis copies and sorts the given year lists.
func NewYearAxis(vintage, activity []int) YearAxis {
	v := append([]int(nil), vintage...)
	a := append([]int(nil), activity...)
	sort.Ints(v)
	sort.Ints(a)
	return YearAxis{Vintage: v, Activity: a}
}

// Years returns the year list for the named axis. The activity list is the
// default for unnamed broadcasts on activity-bearing columns.
func (y YearAxis) Years(axis AxisName) []int {
	if axis == AxisVintage {
		return y.Vintage
	}
	return y.Activity
}

// Resolve maps a YearSpec to the concrete years it expands to on the given
// default axis. Fixed specs resolve to their single year; absent specs to nil.
func (y YearAxis) Resolve(s YearSpec, def AxisName) []int {
	switch s.Kind {
	case YearFixed:
		return []int{s.Val}
	case YearBroadcastAll:
		return y.Years(def)
	case YearBroadcastFrom:
		return y.Years(s.Axis)
	default:
		return nil
	}
}
