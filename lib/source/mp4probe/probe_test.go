package mp4probe

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/fosdem/happlay/lib/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(typ string, payload ...[]byte) []byte {
	var body []byte
	for _, p := range payload {
		body = append(body, p...)
	}
	out := binary.BigEndian.AppendUint32(nil, uint32(8+len(body)))
	out = append(out, typ...)
	return append(out, body...)
}

func u16(v uint16) []byte { return binary.BigEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.BigEndian.AppendUint32(nil, v) }

func tkhd(id uint32, w, h uint16) []byte {
	var b []byte
	b = append(b, u32(0x0000000f)...) // version 0, enabled|in movie|in preview
	b = append(b, u32(0)...)          // creation time
	b = append(b, u32(0)...)          // modification time
	b = append(b, u32(id)...)
	b = append(b, u32(0)...) // reserved
	b = append(b, u32(0)...) // duration
	b = append(b, make([]byte, 8)...)
	b = append(b, u16(0)...) // layer
	b = append(b, u16(0)...) // alternate group
	b = append(b, u16(0)...) // volume
	b = append(b, u16(0)...) // reserved
	for _, m := range []uint32{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000} {
		b = append(b, u32(m)...)
	}
	b = append(b, u32(uint32(w)<<16)...)
	b = append(b, u32(uint32(h)<<16)...)
	return box("tkhd", b)
}

func hdlr(handler string) []byte {
	var b []byte
	b = append(b, u32(0)...) // version, flags
	b = append(b, "mhlr"...)
	b = append(b, handler...)
	b = append(b, make([]byte, 12)...)
	b = append(b, "Handler\x00"...)
	return box("hdlr", b)
}

func visualEntry(fourcc string, w, h uint16) []byte {
	var b []byte
	b = append(b, make([]byte, 6)...)
	b = append(b, u16(1)...) // data reference index
	b = append(b, make([]byte, 16)...)
	b = append(b, u16(w)...)
	b = append(b, u16(h)...)
	b = append(b, u32(0x00480000)...)
	b = append(b, u32(0x00480000)...)
	b = append(b, u32(0)...)
	b = append(b, u16(1)...)
	b = append(b, make([]byte, 32)...)
	b = append(b, u16(24)...)
	b = append(b, u16(0xffff)...)
	return box(fourcc, b)
}

func stsd(entries ...[]byte) []byte {
	b := append(u32(0), u32(uint32(len(entries)))...)
	for _, e := range entries {
		b = append(b, e...)
	}
	return box("stsd", b)
}

func trak(id uint32, handler string, entry []byte, w, h uint16) []byte {
	return box("trak",
		tkhd(id, w, h),
		box("mdia",
			hdlr(handler),
			box("minf",
				box("stbl", stsd(entry)),
			),
		),
	)
}

func movie(traks ...[]byte) []byte {
	ftyp := box("ftyp", []byte("qt  "), u32(0x200), []byte("qt  "))
	return append(ftyp, box("moov", traks...)...)
}

func TestProbeFindsVideoTrack(t *testing.T) {
	data := movie(
		trak(1, "soun", box("sowt", make([]byte, 28)), 0, 0),
		trak(2, "vide", visualEntry("HapY", 1920, 1080), 1920, 1080),
	)

	info, err := Probe(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "HapY", info.FourCC.String())
	assert.Equal(t, codec.HapQ, codec.Classify(info.FourCC).Variant)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.EqualValues(t, 2, info.TrackID)
}

func TestProbePrefersSampleEntrySize(t *testing.T) {
	// display size in tkhd differs from the coded size
	data := movie(trak(1, "vide", visualEntry("Hap1", 18, 18), 36, 36))

	info, err := Probe(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 18, info.Width)
	assert.Equal(t, 18, info.Height)
}

func TestProbeUnknownCodecStillProbes(t *testing.T) {
	data := movie(trak(1, "vide", visualEntry("avc1", 64, 64), 64, 64))

	info, err := Probe(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "avc1", info.FourCC.String())
	assert.False(t, codec.Classify(info.FourCC).Supported())
}

func TestProbeNoVideoTrack(t *testing.T) {
	data := movie(trak(1, "soun", box("sowt", make([]byte, 28)), 0, 0))
	_, err := Probe(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrNoVideoTrack)

	_, err = Probe(bytes.NewReader(box("ftyp", []byte("qt  "), u32(0))))
	assert.ErrorIs(t, err, ErrNoVideoTrack)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mov")
	require.NoError(t, os.WriteFile(path, movie(trak(1, "vide", visualEntry("Hap5", 32, 16), 32, 16)), 0o644))

	f, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hap5", f.Track.FourCC.String())
	assert.NotEmpty(t, f.Data)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	empty := filepath.Join(t.TempDir(), "empty.mov")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = OpenFile(empty)
	assert.Error(t, err)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing.mov"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
