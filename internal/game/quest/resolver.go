package quest

import (
	"fmt"
	"sort"
)

// Resolution is the audit record of one roll-to-tier resolution.
type Resolution struct {
	Roll     int  // natural die value in [1, 20]
	Modifier int  // attribute modifier applied to non-critical rolls
	Total    int  // Roll + Modifier (equals Roll for criticals)
	Critical bool // natural 20 or natural 1
	Fallback bool // no tier matched; the worst-case tier was substituted
}

// String renders the roll audit, e.g. "rolled 14 +2 = 16" or "natural 20!".
func (r Resolution) String() string {
	if r.Critical {
		return fmt.Sprintf("natural %d!", r.Roll)
	}
	return fmt.Sprintf("rolled %d %+d = %d", r.Roll, r.Modifier, r.Total)
}

// ResolveOutcome selects exactly one tier from the template's outcome table.
//
// A natural 20 or natural 1 selects the reserved "20"/"1" tier when present,
// ignoring the modifier. Otherwise total = roll + mod; tiers are scanned in
// descending order of range upper bound and the first containing range wins
// (bare integers match exact totals only). When nothing matches — a coverage
// gap, or a total below the lowest floor — the most punishing tier (lowest
// floor, then lowest ceiling) is substituted and Resolution.Fallback is set so
// the caller can log the content defect.
//
// Precondition: roll in [1, 20]; t has at least one tier.
// Postcondition: returns a tier from t.Tiers and a populated Resolution.
func ResolveOutcome(t *Template, roll, mod int) (OutcomeTier, Resolution) {
	if roll == 20 || roll == 1 {
		for _, tier := range t.Tiers {
			if (roll == 20 && tier.Range.IsCriticalSuccess()) ||
				(roll == 1 && tier.Range.IsCriticalFailure()) {
				return tier, Resolution{Roll: roll, Modifier: mod, Total: roll, Critical: true}
			}
		}
		// No reserved critical tier authored; fall through to normal matching.
	}

	total := roll + mod
	res := Resolution{Roll: roll, Modifier: mod, Total: total}

	ordered := make([]OutcomeTier, len(t.Tiers))
	copy(ordered, t.Tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Range.Max > ordered[j].Range.Max
	})

	for _, tier := range ordered {
		if tier.Range.Contains(total) {
			return tier, res
		}
	}

	res.Fallback = true
	return worstTier(ordered), res
}

// worstTier returns the most punishing tier: lowest floor, ties broken by
// lowest ceiling. With ordered sorted by descending Max this is scanned last
// to first.
func worstTier(ordered []OutcomeTier) OutcomeTier {
	worst := ordered[0]
	for _, tier := range ordered[1:] {
		if tier.Range.Min < worst.Range.Min ||
			(tier.Range.Min == worst.Range.Min && tier.Range.Max < worst.Range.Max) {
			worst = tier
		}
	}
	return worst
}
