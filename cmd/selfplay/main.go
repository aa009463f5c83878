package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/logging"
	"github.com/iamasit07/tic-tac-toe/backend/internal/repository/parquet"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/selfplay"
	"github.com/rs/zerolog/log"
)

func main() {
	games := flag.Int("games", 100, "Number of games to play")
	xLevel := flag.String("x", "hard", "Difficulty for X (easy, medium, hard)")
	oLevel := flag.String("o", "hard", "Difficulty for O (easy, medium, hard)")
	seed := flag.Uint64("seed", 0, "Random seed (0 = time based)")
	outDir := flag.String("out", "", "Directory for the parquet move log (empty = no file)")
	noPruning := flag.Bool("no-pruning", false, "Disable alpha-beta pruning")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logging.Setup(*logLevel, true)

	x, o := bot.Difficulty(*xLevel), bot.Difficulty(*oLevel)
	if x != bot.ParseDifficulty(*xLevel) || o != bot.ParseDifficulty(*oLevel) {
		log.Fatal().Msgf("unknown difficulty: x=%q o=%q", *xLevel, *oLevel)
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	opts := []bot.Option{bot.WithRand(rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))}
	if *noPruning {
		opts = append(opts, bot.WithoutPruning())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()
	runner := selfplay.NewRunner(bot.NewEngine(opts...))
	summary, rows, err := runner.Run(ctx, selfplay.Config{
		Games: *games,
		X:     x,
		O:     o,
		RunID: fmt.Sprintf("seed%d-%s-%s", *seed, x, o),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Self-play failed")
	}

	fmt.Printf("X=%s vs O=%s, seed %d, %d games in %s\n", x, o, *seed, summary.Games, time.Since(start).Round(time.Millisecond))
	fmt.Printf("  X wins: %d\n  O wins: %d\n  draws:  %d\n", summary.XWins, summary.OWins, summary.Draws)

	if *outDir == "" {
		return
	}
	name := fmt.Sprintf("selfplay_%s_%s_%d.parquet", x, o, time.Now().Unix())
	path := filepath.Join(*outDir, name)
	if err := parquet.WriteMoves(path, rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to write move log")
	}
	log.Info().Str("path", path).Int("rows", len(rows)).Msg("Move log written")
}
