// Package scenario defines the scenario-store boundary the pipeline loads
// expanded tables into, an in-memory store implementation, and the loader
// that assembles per-technology batches with atomic replace semantics.
package scenario
