package main

import (
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/fosdem/happlay/lib/config"
	hlog "github.com/fosdem/happlay/lib/log"
	"github.com/fosdem/happlay/lib/player"
)

func init() {
	// The OpenGL stuff must be in one thread
	runtime.LockOSThread()
}

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Fatal(err)
	}

	filename := os.Getenv(config.EnvConfig)
	if len(os.Args) >= 2 {
		filename = os.Args[1]
	}
	if filename == "" {
		log.Fatalf("Usage: %s <config file> (or set %s)", os.Args[0], config.EnvConfig)
	}

	cfg, err := config.Parse(filename)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal(err)
	}

	level, err := hlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	hlog.Setup(level)

	if err := player.MakeWindowAndPlay(cfg); err != nil {
		slog.Error("player stopped", "err", err)
		os.Exit(1)
	}
}
