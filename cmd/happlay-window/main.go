package main

import (
	"flag"
	"log"
	"runtime"

	"github.com/fosdem/happlay/lib/config"
	hlog "github.com/fosdem/happlay/lib/log"
	"github.com/fosdem/happlay/lib/player"
)

// Plays a single synthetic movie without a config file.
func main() {
	titlePtr := flag.String("title", "happlay", "Window title")
	widthPtr := flag.Int("width", 1280, "Window width")
	heightPtr := flag.Int("height", 720, "Window height")
	codecPtr := flag.String("codec", "Hap1", "Codec fourCC of the movie")
	movieWidthPtr := flag.Int("movie-width", 1920, "Movie width")
	movieHeightPtr := flag.Int("movie-height", 1080, "Movie height")
	ratePtr := flag.Float64("rate", 30, "Movie frame rate")
	gatePtr := flag.String("gate", "atomic", "Frame handoff: atomic or locked")
	levelPtr := flag.String("log-level", "info", "Log level")
	flag.Parse()

	runtime.LockOSThread()

	level, err := hlog.ParseLevel(*levelPtr)
	if err != nil {
		log.Fatal(err)
	}
	hlog.Setup(level)

	cfg := &config.Config{
		Window:   &config.WindowCfg{Title: *titlePtr, Width: *widthPtr, Height: *heightPtr},
		Playback: &config.PlaybackCfg{Gate: *gatePtr},
		Movies: []*config.MovieCfg{{
			MovieCfgStub: config.MovieCfgStub{Name: "synthetic", Type: "synthetic"},
			Cfg: &config.SyntheticSourceCfg{
				Codec:     *codecPtr,
				Width:     *movieWidthPtr,
				Height:    *movieHeightPtr,
				FrameRate: *ratePtr,
			},
		}},
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid options: %s", err)
	}

	if err := player.MakeWindowAndPlay(cfg); err != nil {
		log.Fatal(err)
	}
}
