// Package config loads and validates the pipeline configuration: the node
// list, the ordered technology declarations with their trade metadata, the
// year-axis document and the calibration source locations. Configuration is
// read once at startup and treated as immutable afterwards.
//
// Values come from a YAML document with environment-variable overrides
// (prefix BILAT); a separate YAML document declares the vintage and activity
// year lists.
package config
