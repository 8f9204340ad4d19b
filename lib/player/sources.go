package player

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/fosdem/happlay/lib/codec"
	"github.com/fosdem/happlay/lib/config"
	"github.com/fosdem/happlay/lib/movie"
	"github.com/fosdem/happlay/lib/source/imgsource"
	"github.com/fosdem/happlay/lib/source/mp4probe"
	"github.com/fosdem/happlay/lib/source/synthsource"
)

// FileOpener probes a movie file and plays frames of the probed size and
// codec.
func FileOpener(frameRate float64, logger *slog.Logger) movie.Opener {
	return func(path string) (movie.FrameSource, error) {
		f, err := mp4probe.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return synthsource.New(synthsource.FromTrack(f.Track, frameRate), logger)
	}
}

// BytesOpener is FileOpener for movies that are already in memory.
func BytesOpener(frameRate float64, logger *slog.Logger) movie.BytesOpener {
	return func(data []byte, hint string) (movie.FrameSource, error) {
		track, err := mp4probe.Probe(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", hint, err)
		}
		return synthsource.New(synthsource.FromTrack(track, frameRate), logger)
	}
}

// openMovie builds the source a movie config describes and starts playing
// it. img is set for image movies.
func openMovie(mc *config.MovieCfg, opts movie.Options) (m *movie.Movie, img *imgsource.ImgSource, err error) {
	opts.Name = mc.Name
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg := mc.Cfg.(type) {
	case *config.SyntheticSourceCfg:
		fourcc, err := codec.ParseFourCC(cfg.Codec)
		if err != nil {
			return nil, nil, err
		}
		src, err := synthsource.New(synthsource.Config{
			FourCC:       fourcc,
			Width:        cfg.Width,
			Height:       cfg.Height,
			PaddedWidth:  cfg.PaddedWidth,
			PaddedHeight: cfg.PaddedHeight,
			FrameRate:    cfg.FrameRate,
			Frames:       cfg.Frames,
		}, logger)
		if err != nil {
			return nil, nil, &movie.OpenError{Path: mc.Name, Err: err}
		}
		m, err = movie.OpenSource(src, opts)
		return m, nil, err

	case *config.FileSourceCfg:
		opts.Opener = FileOpener(cfg.FrameRate, logger)
		opts.BytesOpener = BytesOpener(cfg.FrameRate, logger)
		m, err = movie.Open(string(cfg.Path), opts)
		return m, nil, err

	case *config.ImgSourceCfg:
		fourcc, err := codec.ParseFourCC(cfg.Codec)
		if err != nil {
			return nil, nil, err
		}
		src, err := imgsource.New(imgsource.Config{
			Path:      string(cfg.Path),
			FourCC:    fourcc,
			FrameRate: cfg.FrameRate,
			Inotify:   mc.Watch,
		}, logger)
		if err != nil {
			return nil, nil, &movie.OpenError{Path: string(cfg.Path), Err: err}
		}
		m, err = movie.OpenSource(src, opts)
		if err != nil {
			return nil, nil, err
		}
		return m, src, nil

	default:
		return nil, nil, fmt.Errorf("unknown source type %s", mc.Type)
	}
}

// watchedPath is the file whose rewrite reopens the movie, or "" when the
// movie is not watched this way. Image movies reload themselves.
func watchedPath(mc *config.MovieCfg) string {
	if !mc.Watch {
		return ""
	}
	if cfg, ok := mc.Cfg.(*config.FileSourceCfg); ok {
		return string(cfg.Path)
	}
	return ""
}
