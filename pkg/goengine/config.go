package goengine

import (
	"github.com/tsumego/goigo/pkg/mcts"
	"github.com/tsumego/goigo/pkg/playout"
)

// ThreadModel selects how worker goroutines share (or don't share) the
// search tree; it mirrors mcts.MultithreadPolicy one-for-one but keeps
// the engine's public config vocabulary independent of the search
// core's internal naming.
type ThreadModel int

const (
	ThreadModelRoot ThreadModel = iota
	ThreadModelTree
	ThreadModelTreeVL
)

func (m ThreadModel) toMultithreadPolicy() mcts.MultithreadPolicy {
	switch m {
	case ThreadModelRoot:
		return mcts.MultithreadRootParallel
	case ThreadModelTree:
		return mcts.MultithreadTreeParallel
	default:
		return mcts.MultithreadTreeParallelVL
	}
}

// Config is the fully populated configuration record the engine is
// constructed with; parsing flags or a config file into this struct is
// explicitly out of scope here.
type Config struct {
	Threads      int
	ThreadModel  ThreadModel
	Pondering    bool
	MaxTreeBytes int64
	FastAlloc    bool
	ForceSeed    int64 // 0 means unset, use the package seed generator

	ResignRatio    float64
	LossThreshold  float64
	MercyThreshold int
	GameLength     int
	ExpandVisits   int32

	FusekiEndPct float64
	YoseStartPct float64

	Komi    float64
	Dynkomi float64

	ValScale  float64
	ValPoints float64
	ValExtra  float64

	PassAllAlive bool

	PlayoutPolicy playout.Policy
	Prior         playout.Prior
}

// Defaults mirrored from the documented values in the external
// interface contract.
const (
	DefaultResignRatio   = 0.2
	DefaultLossThreshold = 0.85
	DefaultExpandVisits  = 2
	DefaultFusekiEndPct  = 0.20
	DefaultYoseStartPct  = 0.40
	DefaultMaxTreeBytes  = 3 << 30 // 3 GiB
	DefaultGameLength    = 1000
	GJMinGames           = 500
	GJThreshold          = 0.8
)

// DefaultConfig returns a Config with every documented default
// applied, ready for a caller to override selectively.
func DefaultConfig() *Config {
	return &Config{
		Threads:       1,
		ThreadModel:   ThreadModelTreeVL,
		MaxTreeBytes:  DefaultMaxTreeBytes,
		ResignRatio:   DefaultResignRatio,
		LossThreshold: DefaultLossThreshold,
		ExpandVisits:  DefaultExpandVisits,
		FusekiEndPct:  DefaultFusekiEndPct,
		YoseStartPct:  DefaultYoseStartPct,
		GameLength:    DefaultGameLength,
		PlayoutPolicy: playout.RandomPolicy{},
		Prior:         playout.UniformPrior{},
	}
}

// Validate enforces the mutual-exclusion rules the original engine
// treats as fatal misconfiguration.
func (c *Config) Validate() error {
	if c.FastAlloc && c.ThreadModel == ThreadModelRoot {
		return NewFatalError("fast_alloc is incompatible with root-parallel search", nil)
	}
	if c.Threads < 1 {
		return NewFatalError("threads must be at least 1", nil)
	}
	if c.PlayoutPolicy == nil {
		return NewFatalError("playout policy must not be nil", nil)
	}
	return nil
}
