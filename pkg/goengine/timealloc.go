package goengine

import "time"

// TimePeriod and TimeDimension classify an incoming time control, in
// the vocabulary the (out of scope) text-protocol front-end would
// translate a GTP time_left/time_settings pair into before calling
// Genmove.
type TimePeriod int

const (
	PeriodNull TimePeriod = iota
	PeriodMove
	// PeriodTotal is not permitted at this layer; the caller must
	// convert a total-time budget into a per-move allocation itself.
)

type TimeDimension int

const (
	DimensionGames TimeDimension = iota
	DimensionWalltime
)

// TimeInfo is what the caller hands Genmove to describe the remaining
// budget for this move.
type TimeInfo struct {
	Period TimePeriod
	Dim    TimeDimension
	Budget float64 // games for DimensionGames; walltime reads Recommended/MaxTime instead

	Byoyomi      bool
	Recommended  time.Duration
	MaxTime      time.Duration
	NetLag       time.Duration
	BoardSide    int
	MovesPlayed  int
}

// StopCondition is the tagged union the search controller polls
// against: either a games budget or an absolute wall-clock deadline.
type StopCondition struct {
	ByGames  bool
	Desired  float64 // games, or absolute unix-nano deadline
	Worst    float64
}

const defaultGamesBudget = 80000

// Allocate converts a TimeInfo into the stop conditions the search
// controller uses. NULL period defaults to 80,000 games, matching the
// documented fallback.
func Allocate(info TimeInfo, now time.Time) StopCondition {
	if info.Period == PeriodNull {
		return StopCondition{ByGames: true, Desired: defaultGamesBudget, Worst: defaultGamesBudget}
	}

	if info.Dim == DimensionGames {
		return StopCondition{ByGames: true, Desired: info.Budget, Worst: info.Budget}
	}

	return allocateWalltime(info, now)
}

func allocateWalltime(info TimeInfo, now time.Time) StopCondition {
	recommended := info.Recommended
	maxTime := info.MaxTime

	var desired, worst time.Duration

	if info.Byoyomi {
		desired = time.Duration(float64(recommended) * 0.9)
		worst = time.Duration(float64(recommended) * 1.1)
	} else {
		bsize := float64((info.BoardSide - 2) * (info.BoardSide - 2))
		fusekiEndMove := DefaultFusekiEndPct * bsize
		yoseStartMove := DefaultYoseStartPct * bsize

		movesLeftAtYose := bsize - yoseStartMove
		if movesLeftAtYose < 1 {
			movesLeftAtYose = 1
		}
		longest := time.Duration(float64(maxTime) / (movesLeftAtYose / 2))

		move := float64(info.MovesPlayed)
		switch {
		case move < fusekiEndMove:
			frac := move / fusekiEndMove
			desired = recommended + time.Duration(frac*float64(longest-recommended))
		case move < yoseStartMove:
			desired = longest
		default:
			desired = recommended
		}

		worst = time.Duration(float64(desired) * 3.0)
	}

	// Resolved open question: clamp desired to max_time too, not just
	// worst, so a recommended_time that already exceeds max_time can't
	// leave desired unbounded.
	if maxTime > 0 {
		if worst > maxTime {
			worst = maxTime
		}
		if desired > worst {
			desired = worst
		}
	}

	deadlineBase := now.Add(-info.NetLag)
	return StopCondition{
		ByGames: false,
		Desired: float64(deadlineBase.Add(desired).UnixNano()),
		Worst:   float64(deadlineBase.Add(worst).UnixNano()),
	}
}
