// Package calibration merges externally observed history into bare
// parameter tables: bilateral trade statistics, shipping-activity workbooks,
// and price series, normalized to common records, unit-converted, and
// aggregated to the network's node and technology granularity.
package calibration
