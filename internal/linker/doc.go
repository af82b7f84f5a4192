// Package linker owns the cross-technology stages: deduplicating shared
// flow-infrastructure rows with a first-claim-wins accumulator, and deriving
// the relations that couple trade activity to accounting totals and to the
// infrastructure capacity it rides on.
package linker
