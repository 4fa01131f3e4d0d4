package peephole

import "github.com/ethereum/go-ethereum/metrics"

var (
	mergedPredecessorsCounter = metrics.NewRegisteredCounter("peephole/p1/merged_predecessors", nil)
	removedInstructionsCounter = metrics.NewRegisteredCounter("peephole/p2/removed_instructions", nil)
	hoistedInstructionsCounter = metrics.NewRegisteredCounter("peephole/p3/hoisted_instructions", nil)
	suffixBlocksCreatedCounter = metrics.NewRegisteredCounter("peephole/p4/suffix_blocks_created", nil)
)
