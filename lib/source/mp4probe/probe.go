// Package mp4probe reads the video track description of a MOV/MP4 file.
package mp4probe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/abema/go-mp4"
	"github.com/fosdem/happlay/lib/codec"
)

var ErrNoVideoTrack = errors.New("no video track")

// TrackInfo describes the first video track of a file.
type TrackInfo struct {
	FourCC codec.FourCC
	Width  int
	Height int
	// TrackID is the tkhd track id, 0 if there was no tkhd.
	TrackID uint32
}

var videHandler = [4]byte{'v', 'i', 'd', 'e'}

type track struct {
	id        uint32
	tkhdW     int
	tkhdH     int
	video     bool
	entry     *codec.FourCC
	entryW    int
	entryH    int
	hasEntryD bool
}

// Probe walks moov/trak/mdia for the first track with a "vide" handler and
// returns the fourCC of its first sample description.
func Probe(r io.ReadSeeker) (TrackInfo, error) {
	var tracks []*track
	var cur *track

	_, err := mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (any, error) {
		switch h.BoxInfo.Type {
		case mp4.BoxTypeMoov(), mp4.BoxTypeMdia(), mp4.BoxTypeMinf(), mp4.BoxTypeStbl():
			return h.Expand()

		case mp4.BoxTypeTrak():
			cur = &track{}
			tracks = append(tracks, cur)
			defer func() { cur = nil }()
			return h.Expand()

		case mp4.BoxTypeTkhd():
			if cur == nil {
				return nil, nil
			}
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, fmt.Errorf("could not read tkhd: %w", err)
			}
			tkhd := box.(*mp4.Tkhd)
			cur.id = tkhd.TrackID
			// 16.16 fixed point
			cur.tkhdW = int(tkhd.Width >> 16)
			cur.tkhdH = int(tkhd.Height >> 16)
			return nil, nil

		case mp4.BoxTypeHdlr():
			if cur == nil || parent(h.Path) != mp4.BoxTypeMdia() {
				return nil, nil
			}
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, fmt.Errorf("could not read hdlr: %w", err)
			}
			cur.video = box.(*mp4.Hdlr).HandlerType == videHandler
			return nil, nil

		case mp4.BoxTypeStsd():
			if cur == nil {
				return nil, nil
			}
			return h.Expand()
		}

		// sample entries are children of stsd; their types are the codec
		if cur != nil && cur.entry == nil && parent(h.Path) == mp4.BoxTypeStsd() {
			fourcc := codec.FourCC(h.BoxInfo.Type)
			cur.entry = &fourcc
			cur.entryW, cur.entryH, cur.hasEntryD = readVisualEntrySize(h)
		}
		return nil, nil
	})
	if err != nil {
		return TrackInfo{}, fmt.Errorf("could not read box structure: %w", err)
	}

	for _, t := range tracks {
		if !t.video || t.entry == nil {
			continue
		}
		info := TrackInfo{FourCC: *t.entry, Width: t.tkhdW, Height: t.tkhdH, TrackID: t.id}
		if t.hasEntryD {
			info.Width, info.Height = t.entryW, t.entryH
		}
		return info, nil
	}
	return TrackInfo{}, ErrNoVideoTrack
}

func parent(path mp4.BoxPath) mp4.BoxType {
	if len(path) < 2 {
		return mp4.BoxType{}
	}
	return path[len(path)-2]
}

// Offsets into a VisualSampleEntry payload: reserved(6) data_reference_index(2)
// pre_defined(2) reserved(2) pre_defined(12) width(2) height(2).
const (
	visualEntryWidthOffset = 24
	visualEntryMinSize     = 28
)

// readVisualEntrySize reads width and height from a sample entry without
// needing go-mp4 to know its type.
func readVisualEntrySize(h *mp4.ReadHandle) (int, int, bool) {
	var buf bytes.Buffer
	if _, err := h.ReadData(&buf); err != nil || buf.Len() < visualEntryMinSize {
		return 0, 0, false
	}
	b := buf.Bytes()
	w := binary.BigEndian.Uint16(b[visualEntryWidthOffset:])
	hgt := binary.BigEndian.Uint16(b[visualEntryWidthOffset+2:])
	if w == 0 || hgt == 0 {
		return 0, 0, false
	}
	return int(w), int(hgt), true
}
