package config

// Structural constants shared across the pipeline. The single-mode,
// yearly-resolution layout matches the target scenario store's schema.
const (
	// DefaultMode is the single operating mode used on every activity row.
	DefaultMode = "M1"

	// DefaultTime is the sub-annual time slice; the model runs at yearly
	// resolution only.
	DefaultTime = "year"

	// EnergyUnit is the model's energy-equivalent unit all calibration
	// magnitudes are converted into.
	EnergyUnit = "GWa"

	// CostUnit is the unit for cost parameters.
	CostUnit = "USD/kWa"

	// GlobalNode keys global (network-wide) relations.
	GlobalNode = "World"

	// CuratedIncludeFlag marks an edge as included in a curated network file.
	CuratedIncludeFlag = "include"
	// CuratedExcludeFlag marks an edge as excluded.
	CuratedExcludeFlag = "exclude"
)
