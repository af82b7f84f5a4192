// Package exporter writes the pipeline's tabular files: bare parameter
// templates (the authoring surface users fill in), curated network templates
// and audit dumps of expanded tables. Files are BOM-prefixed CSV so they open
// cleanly in spreadsheet tools.
package exporter
