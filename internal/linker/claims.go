package linker

import "sort"

// ClaimSet records which technology first claimed each shared
// flow-infrastructure variant. It is an explicit accumulator threaded
// through technology processing in declaration order, never a shared
// mutable global: the fold over technologies stays deterministic and the
// stages before it stay pure.
type ClaimSet map[string]string

// NewClaimSet returns an empty accumulator.
func NewClaimSet() ClaimSet {
	return make(ClaimSet)
}

// Claim records owner's claim on a flow variant. It reports whether the
// owner holds the claim afterwards: true on first claim or re-claim by the
// same owner, false when another technology claimed it earlier.
func (c ClaimSet) Claim(flowVariant, owner string) bool {
	if existing, ok := c[flowVariant]; ok {
		return existing == owner
	}
	c[flowVariant] = owner
	return true
}

// Owner returns the claiming technology for a flow variant.
func (c ClaimSet) Owner(flowVariant string) (string, bool) {
	owner, ok := c[flowVariant]
	return owner, ok
}

// Variants lists the claimed flow variants, sorted for stable reporting.
func (c ClaimSet) Variants() []string {
	out := make([]string, 0, len(c))
	for v := range c {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
