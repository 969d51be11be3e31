// Command console plays the bead game in a terminal, optionally against the computer.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rocketscienceinc/bead-backend/internal/bead"
	"github.com/rocketscienceinc/bead-backend/internal/config"
	"github.com/rocketscienceinc/bead-backend/internal/savefile"
	"github.com/rocketscienceinc/bead-backend/internal/turntimer"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	computer := flag.Bool("computer", false, "let the computer play Player 2")
	size := flag.Int("size", 0, "board size, overrides the config")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	conf, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *size != 0 {
		conf.Game.BoardSize = *size
	}

	engine, err := bead.NewEngine(conf.Game.BoardSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create game: %v\n", err)
		os.Exit(1)
	}

	game := newConsole(logger, os.Stdin, os.Stdout, engine,
		savefile.NewStore(conf.Game.SavePath),
		turntimer.New(conf.Game.TurnTimeLimit),
	)
	game.computer = *computer
	game.botDelay = conf.Game.BotDelay

	if err = game.run(); err != nil && !errors.Is(err, io.EOF) {
		logger.Error("console game failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig falls back to environment and defaults when path is absent.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return config.LoadEnv()
	}

	return config.Load(path)
}
