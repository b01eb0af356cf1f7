package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tsumego/goigo/pkg/board"
	"github.com/tsumego/goigo/pkg/goengine"
)

// benchResult is one thread-count row of the report.
type benchResult struct {
	threads    int
	cycles     int
	elapsed    time.Duration
	cyclesPerS float64
}

func newBenchCmd() *cobra.Command {
	var (
		size       int
		games      float64
		maxThreads int
		trials     int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a fixed-budget search repeatedly across thread counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%-8s %-10s %-12s %-12s\n", "threads", "trials", "cycles", "cycles/sec")
			for threads := 1; threads <= maxThreads; threads++ {
				result, err := runBenchThreadCount(cmd.Context(), size, games, threads, trials)
				if err != nil {
					return fmt.Errorf("threads=%d: %w", threads, err)
				}
				fmt.Printf("%-8d %-10d %-12d %-12.1f\n", result.threads, trials, result.cycles, result.cyclesPerS)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 9, "board side length")
	cmd.Flags().Float64Var(&games, "games", 2000, "playout budget per trial")
	cmd.Flags().IntVar(&maxThreads, "max-threads", 4, "highest thread count to benchmark")
	cmd.Flags().IntVar(&trials, "trials", 4, "concurrent self-play trials averaged per thread count")
	return cmd
}

// runBenchThreadCount runs trials concurrent empty-board genmove calls at
// the given thread count and averages their cycles/sec.
func runBenchThreadCount(ctx context.Context, size int, games float64, threads, trials int) (benchResult, error) {
	group, ctx := errgroup.WithContext(ctx)

	cycleCounts := make([]int, trials)
	elapsed := make([]time.Duration, trials)

	for i := 0; i < trials; i++ {
		i := i
		group.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			cfg := goengine.DefaultConfig()
			cfg.Threads = threads
			cfg.ThreadModel = goengine.ThreadModelTree

			eng, err := goengine.NewEngine(size, cfg)
			if err != nil {
				return err
			}

			b := board.NewBoard(size)
			info := goengine.TimeInfo{Period: goengine.PeriodMove, Dim: goengine.DimensionGames, Budget: games}

			start := time.Now()
			if _, err := eng.Genmove(b, info, board.Black); err != nil {
				return err
			}
			elapsed[i] = time.Since(start)
			cycleCounts[i] = eng.Cycles()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return benchResult{}, err
	}

	var totalCycles int
	var totalElapsed time.Duration
	for i := 0; i < trials; i++ {
		totalCycles += cycleCounts[i]
		totalElapsed += elapsed[i]
	}

	avgElapsed := totalElapsed / time.Duration(trials)
	cps := float64(totalCycles) / float64(trials) / avgElapsed.Seconds()

	return benchResult{
		threads:    threads,
		cycles:     totalCycles / trials,
		elapsed:    avgElapsed,
		cyclesPerS: cps,
	}, nil
}
