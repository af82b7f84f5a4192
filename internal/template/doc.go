// Package template generates and reads bare parameter templates: one row per
// network edge (or per node for single-ended parameters) with dimension
// columns populated and year columns set to broadcast sentinels. The written
// CSV files are the authoring surface users fill in before the broadcast run.
package template
