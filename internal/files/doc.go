// Package files locates pipeline input files on disk: calibration source
// workbooks and CSVs, curated network files and authored templates.
package files
