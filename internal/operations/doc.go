// Package operations orchestrates the bilateral parameter pipeline. Each
// technology is processed by a fixed set of steps (template generation,
// historical calibration, year broadcast, deduplication and relation
// building, scenario load) registered in a dependency-ordered registry.
//
// The Manager runs the expansion steps per technology, optionally in
// parallel, then folds the link and load steps sequentially in declaration
// order so that shared flow infrastructure is claimed deterministically.
// Recoverable calibration failures skip the calibration step and continue;
// configuration errors abort the run; everything else fails the technology
// and lets the rest of the run proceed.
package operations
