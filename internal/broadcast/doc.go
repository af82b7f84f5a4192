// Package broadcast expands sentinel year columns in parameter tables into
// the full configured year cross product, bounded by technical lifetimes,
// and enforces the post-expansion year invariants.
package broadcast
