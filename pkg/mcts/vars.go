package mcts

import "time"

// mainThreadId is the privileged worker id: only it updates maxdepth,
// invokes listeners, and evaluates the final stop reason.
const mainThreadId = 0

// DefaultVirtualLoss is the virtual-loss amount applied per descent step
// in MultithreadTreeParallelVL mode. ROOT and plain TREE mode always use
// a virtual loss of 0 regardless of this default, since ROOT workers
// don't share a tree and plain TREE mode tolerates collisions instead.
const DefaultVirtualLoss int32 = 2

// ExplorationParam is the default UCB1 exploration constant C. Higher
// values favor exploring less-visited children; lower values favor
// exploiting the current best estimate. sqrt(2) is the value with
// theoretical guarantees for bounded rewards, but empirically tuned
// values perform better in practice.
var ExplorationParam float64 = 0.75

// SetExplorationParam changes the package default UCB1 exploration
// constant for trees that don't set their own via UCB1.SetExplorationParam.
func SetExplorationParam(c float64) {
	ExplorationParam = max(0.0, c)
}

// RaveBetaFunction is the default RAVE blending function; see RaveDSilver.
var RaveBetaFunction RaveBetaFnType = RaveDSilver

// SetRaveBetaFunction overrides the package default RAVE blending function.
func SetRaveBetaFunction(f RaveBetaFnType) {
	if f != nil {
		RaveBetaFunction = f
	}
}

// SeedGeneratorFn produces the seed each worker's random source is
// initialized from. Overriding it (e.g. to a fixed value) makes searches
// with threads=1 reproducible.
var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// SetSeedGeneratorFn overrides the package default seed source.
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}
