package attributor

import "github.com/numamma/numamma-go/pkg/types"

// Sample is one hardware or synthetic memory-access event delivered by the
// sampler ingest API. Level and Outcome are reported jointly by the
// sampling source (e.g. "L2 hit" and "L2 miss" are distinct hardware data
// sources); Level may be types.HitUnclassified when the source could not
// determine which level satisfied the access, in which case Outcome is
// ignored and the sample's weight folds into MemCounters.NAMissCount.
type Sample struct {
	Addr      types.Address
	Timestamp types.LogicalTime
	Level     types.HitLevel
	Outcome   types.HitOutcome
	Weight    uint64
	Access    types.AccessKind
	ThreadKey any
}
