package registry

import "github.com/numamma/numamma-go/pkg/types"

// MemCounters aggregates sample weights per (memory-hierarchy hit level,
// hit/miss outcome) pair, plus a separate running total for samples whose
// latency the sampler could not classify into any level
// (types.HitUnclassified). Folding two MemCounters is associative and
// commutative: every field is combined component-wise by sum, min, or
// max, none of which depend on argument order or grouping.
type MemCounters struct {
	levels      [types.HitLevelCount][types.HitOutcomeCount]levelCounter
	NAMissCount uint64
}

type levelCounter struct {
	Count int
	Min   uint64
	Max   uint64
	Sum   uint64
}

// Add folds one sample of the given weight into level/outcome. A level
// outside the classified range (types.HitUnclassified) is folded into
// NAMissCount instead.
func (c *MemCounters) Add(level types.HitLevel, outcome types.HitOutcome, weight uint64) {
	if level < 0 || int(level) >= types.HitLevelCount {
		c.NAMissCount += weight
		return
	}
	l := &c.levels[level][outcome]
	if l.Count == 0 || weight < l.Min {
		l.Min = weight
	}
	if weight > l.Max {
		l.Max = weight
	}
	l.Sum += weight
	l.Count++
}

// Fold merges other into c in place, preserving associativity and
// commutativity across arbitrary merge orders.
func (c *MemCounters) Fold(other MemCounters) {
	for lvl := range c.levels {
		for outcome := range c.levels[lvl] {
			a, b := &c.levels[lvl][outcome], &other.levels[lvl][outcome]
			if b.Count == 0 {
				continue
			}
			if a.Count == 0 || b.Min < a.Min {
				a.Min = b.Min
			}
			if b.Max > a.Max {
				a.Max = b.Max
			}
			a.Sum += b.Sum
			a.Count += b.Count
		}
	}
	c.NAMissCount += other.NAMissCount
}

// Count returns the number of samples folded at level/outcome.
func (c MemCounters) Count(level types.HitLevel, outcome types.HitOutcome) int {
	return c.levels[level][outcome].Count
}

// Sum returns the total weight folded at level/outcome.
func (c MemCounters) Sum(level types.HitLevel, outcome types.HitOutcome) uint64 {
	return c.levels[level][outcome].Sum
}

// Min returns the smallest weight folded at level/outcome, or 0 if none.
func (c MemCounters) Min(level types.HitLevel, outcome types.HitOutcome) uint64 {
	return c.levels[level][outcome].Min
}

// Max returns the largest weight folded at level/outcome.
func (c MemCounters) Max(level types.HitLevel, outcome types.HitOutcome) uint64 {
	return c.levels[level][outcome].Max
}

// TotalWeight sums Sum across every level and outcome, plus NAMissCount.
func (c MemCounters) TotalWeight() uint64 {
	total := c.NAMissCount
	for _, lvl := range c.levels {
		for _, l := range lvl {
			total += l.Sum
		}
	}
	return total
}

// TotalCount sums Count across every level and outcome. NAMissCount is a
// weight total, not a folded-sample count, so it is excluded here.
func (c MemCounters) TotalCount() int {
	var total int
	for _, lvl := range c.levels {
		for _, l := range lvl {
			total += l.Count
		}
	}
	return total
}
