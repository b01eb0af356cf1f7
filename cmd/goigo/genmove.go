package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/tsumego/goigo/pkg/board"
	"github.com/tsumego/goigo/pkg/goengine"
)

var (
	blackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("15")).Padding(0, 1)
	whiteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("0")).Padding(0, 1)
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)
	headStyle  = lipgloss.NewStyle().Bold(true)

	// colorEnabled reflects what the output terminal can actually render;
	// lipgloss styles degrade to plain glyphs when redirected to a file or
	// run under a terminal with no color support.
	colorEnabled = termenv.NewOutput(os.Stdout).Profile() != termenv.Ascii
)

func newGenmoveCmd() *cobra.Command {
	var (
		size    int
		moves   int
		threads int
		games   float64
		komi    float64
		seed    int64
	)

	cmd := &cobra.Command{
		Use:   "genmove",
		Short: "Play N self-moves on an empty board and print each choice",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := goengine.DefaultConfig()
			cfg.Threads = threads
			cfg.Komi = komi
			cfg.ForceSeed = seed

			eng, err := goengine.NewEngine(size, cfg)
			if err != nil {
				return fmt.Errorf("constructing engine: %w", err)
			}

			b := board.NewBoard(size)
			info := goengine.TimeInfo{Period: goengine.PeriodMove, Dim: goengine.DimensionGames, Budget: games}

			for i := 0; i < moves; i++ {
				color := b.SideToMove()
				move, err := eng.Genmove(b, info, color)
				if err != nil {
					return fmt.Errorf("genmove %d: %w", i, err)
				}

				if move != board.Resign {
					if err := b.Play(move); err != nil {
						return fmt.Errorf("replaying chosen move %v: %w", move, err)
					}
				}
				if err := eng.NotifyPlay(b, move); err != nil {
					return fmt.Errorf("notify_play %d: %w", i, err)
				}

				fmt.Printf("%s move %d: %s plays %s, root score %s, pv %s\n",
					headStyle.Render("goigo"), i+1, color, formatCoord(b, move), eng.Chat("winrate"), eng.Chat("pv"))
				fmt.Println(renderBoard(b))

				if move == board.Resign || b.PassedTwice() {
					break
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 9, "board side length")
	cmd.Flags().IntVar(&moves, "moves", 20, "number of self-play moves to generate")
	cmd.Flags().IntVar(&threads, "threads", 1, "search worker threads")
	cmd.Flags().Float64Var(&games, "games", 400, "playout budget per move")
	cmd.Flags().Float64Var(&komi, "komi", 7.5, "komi added to White's area score")
	cmd.Flags().Int64Var(&seed, "seed", 0, "rollout RNG seed, 0 means unset")
	return cmd
}

func formatCoord(b *board.Board, c board.Coord) string {
	switch c {
	case board.Pass:
		return "pass"
	case board.Resign:
		return "resign"
	default:
		row, col := int(c)/b.Size, int(c)%b.Size
		return fmt.Sprintf("%c%d", 'A'+col, row+1)
	}
}

func renderBoard(b *board.Board) string {
	var sb strings.Builder
	for row := 0; row < b.Size; row++ {
		for col := 0; col < b.Size; col++ {
			color := b.At(b.CoordAt(row, col))
			if !colorEnabled {
				sb.WriteString(plainGlyph(color))
				continue
			}
			switch color {
			case board.Black:
				sb.WriteString(blackStyle.Render("X"))
			case board.White:
				sb.WriteString(whiteStyle.Render("O"))
			default:
				sb.WriteString(emptyStyle.Render("."))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func plainGlyph(color board.Color) string {
	switch color {
	case board.Black:
		return " X "
	case board.White:
		return " O "
	default:
		return " . "
	}
}
