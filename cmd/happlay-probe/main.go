package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fosdem/happlay/lib/codec"
	"github.com/fosdem/happlay/lib/encdec"
	"github.com/fosdem/happlay/lib/rendering"
	"github.com/fosdem/happlay/lib/rendering/renderconsts"
	"github.com/fosdem/happlay/lib/source/mp4probe"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s <movie> [movie...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := probe(path); err != nil {
			log.Printf("%s: %s", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func probe(path string) error {
	f, err := mp4probe.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info := codec.Classify(f.Track.FourCC)
	fmt.Printf("%s\n", path)
	fmt.Printf("  track:   %d\n", f.Track.TrackID)
	fmt.Printf("  codec:   %s (%s)\n", info.Name(), f.Track.FourCC)
	fmt.Printf("  size:    %dx%d\n", f.Track.Width, f.Track.Height)
	if !info.Supported() {
		fmt.Printf("  playable: no\n")
		return nil
	}

	format := info.Variant.PixelFormat()
	pw, ph := encdec.PadToBlock(f.Track.Width), encdec.PadToBlock(f.Track.Height)
	bw, bh := rendering.NextPowerOfTwo(pw), rendering.NextPowerOfTwo(ph)
	internal := renderconsts.ForPixelFormat(format)
	fmt.Printf("  format:  %s\n", format)
	fmt.Printf("  frame:   %dx%d padded, %d bytes\n", pw, ph, encdec.BytesPerRow(format, pw)*ph)
	fmt.Printf("  texture: %dx%d %s, %d bytes\n", bw, bh, internal, renderconsts.StorageSize(internal, bw, bh))
	return nil
}
