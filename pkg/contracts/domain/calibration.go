package domain

// CalibrationRecord is one externally observed bilateral flow, normalized to
// the pipeline's common shape regardless of the raw source schema.
type CalibrationRecord struct {
	Year      int     `json:"year" validate:"required"`
	Exporter  Node    `json:"exporter" validate:"required"`
	Importer  Node    `json:"importer" validate:"required"`
	Commodity string  `json:"commodity" validate:"required"`
	Magnitude float64 `json:"magnitude"`
	Unit      string  `json:"unit"`
}

// Usable reports whether the observation should be merged at all. Non-positive
// magnitudes are dropped rather than zero-filled: a missing historical row
// signals "no activity", a present zero row would assert an observed hard zero.
func (r CalibrationRecord) Usable() bool {
	return r.Magnitude > 0
}
