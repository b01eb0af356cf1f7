package goengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllocateNullPeriodDefaultsToGamesBudget(t *testing.T) {
	stop := Allocate(TimeInfo{Period: PeriodNull}, time.Now())
	require.True(t, stop.ByGames)
	require.Equal(t, float64(defaultGamesBudget), stop.Desired)
	require.Equal(t, float64(defaultGamesBudget), stop.Worst)
}

func TestAllocateGamesDimension(t *testing.T) {
	stop := Allocate(TimeInfo{Period: PeriodMove, Dim: DimensionGames, Budget: 1234}, time.Now())
	require.True(t, stop.ByGames)
	require.Equal(t, 1234.0, stop.Desired)
	require.Equal(t, 1234.0, stop.Worst)
}

func TestAllocateByoyomiNarrowBand(t *testing.T) {
	now := time.Now()
	info := TimeInfo{
		Period:      PeriodMove,
		Dim:         DimensionWalltime,
		Byoyomi:     true,
		Recommended: 10 * time.Second,
		MaxTime:     time.Minute,
	}
	stop := Allocate(info, now)
	require.False(t, stop.ByGames)

	desired := time.Unix(0, int64(stop.Desired))
	worst := time.Unix(0, int64(stop.Worst))
	require.True(t, worst.After(desired))

	require.InDelta(t, (9 * time.Second).Seconds(), desired.Sub(now).Seconds(), 0.001)
	require.InDelta(t, (11 * time.Second).Seconds(), worst.Sub(now).Seconds(), 0.001)
}

func TestAllocateClampsToMaxTime(t *testing.T) {
	now := time.Now()
	info := TimeInfo{
		Period:      PeriodMove,
		Dim:         DimensionWalltime,
		Byoyomi:     true,
		Recommended: time.Minute, // would want worst=66s, desired=54s
		MaxTime:     10 * time.Second,
	}
	stop := Allocate(info, now)

	desired := time.Unix(0, int64(stop.Desired)).Sub(now)
	worst := time.Unix(0, int64(stop.Worst)).Sub(now)

	require.LessOrEqual(t, worst, info.MaxTime+time.Millisecond)
	require.LessOrEqual(t, desired, worst)
}

func TestAllocateNonByoyomiRampsByMove(t *testing.T) {
	now := time.Now()
	base := TimeInfo{
		Period:      PeriodMove,
		Dim:         DimensionWalltime,
		Recommended: time.Second,
		MaxTime:     time.Minute,
		BoardSide:   19,
	}

	early := base
	early.MovesPlayed = 0
	late := base
	late.MovesPlayed = 200 // well past yose_start

	stopEarly := Allocate(early, now)
	stopLate := Allocate(late, now)

	earlyDesired := time.Unix(0, int64(stopEarly.Desired)).Sub(now)

	require.Equal(t, float64(now.Add(base.Recommended).UnixNano()), stopLate.Desired)
	require.GreaterOrEqual(t, earlyDesired, time.Duration(0))
}
