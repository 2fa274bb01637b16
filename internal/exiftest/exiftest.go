// Package exiftest builds small images with hand-assembled EXIF blocks for
// tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"unicode/utf16"
)

// TIFF field types
const (
	TypeShort    = 3
	TypeLong     = 4
	TypeRational = 5
	TypeASCII    = 2
)

// Tag numbers used by the fixtures.
const (
	TagMake            = 0x010f
	TagModel           = 0x0110
	TagOrientation     = 0x0112
	TagExifIFD         = 0x8769
	TagExposureTime    = 0x829a
	TagFNumber         = 0x829d
	TagExposureProgram = 0x8822
	TagISO             = 0x8827
	TagShutterSpeed    = 0x9201
	TagAperture        = 0x9202
	TagFocalLength     = 0x920a
)

var le = binary.LittleEndian

// Entry is one IFD entry with its value bytes already little endian encoded.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Data  []byte
}

func ASCII(tag uint16, s string) Entry {
	b := append([]byte(s), 0)
	return Entry{Tag: tag, Type: TypeASCII, Count: uint32(len(b)), Data: b}
}

func Short(tag uint16, v uint16) Entry {
	return Entry{Tag: tag, Type: TypeShort, Count: 1, Data: le.AppendUint16(nil, v)}
}

func Long(tag uint16, v uint32) Entry {
	return Entry{Tag: tag, Type: TypeLong, Count: 1, Data: le.AppendUint32(nil, v)}
}

func Rational(tag uint16, num, den uint32) Entry {
	return Entry{Tag: tag, Type: TypeRational, Count: 1, Data: le.AppendUint32(le.AppendUint32(nil, num), den)}
}

// Oversized is a LONG entry whose count times the value size wraps around in
// 32 bits, leaving only eight bytes of data.
func Oversized(tag uint16) Entry {
	return Entry{Tag: tag, Type: TypeLong, Count: 0x40000002, Data: make([]byte, 8)}
}

// encode_ifd lays out an IFD table at offset off followed by the values that
// do not fit in the four byte entry slot.
func encode_ifd(entries []Entry, off uint32) []byte {
	table := 2 + 12*len(entries) + 4
	head := le.AppendUint16(nil, uint16(len(entries)))
	var data []byte
	for _, e := range entries {
		head = le.AppendUint16(head, e.Tag)
		head = le.AppendUint16(head, e.Type)
		head = le.AppendUint32(head, e.Count)
		if len(e.Data) <= 4 {
			slot := make([]byte, 4)
			copy(slot, e.Data)
			head = append(head, slot...)
		} else {
			head = le.AppendUint32(head, off+uint32(table+len(data)))
			data = append(data, e.Data...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		}
	}
	head = le.AppendUint32(head, 0)
	return append(head, data...)
}

// TIFF builds a little endian TIFF block with IFD0 and, when exif_ifd is not
// empty, an EXIF sub-IFD linked from IFD0.
func TIFF(ifd0 []Entry, exif_ifd []Entry) []byte {
	ifd0 = append([]Entry(nil), ifd0...)
	if len(exif_ifd) > 0 {
		ifd0 = append(ifd0, Long(TagExifIFD, 0))
	}
	first := encode_ifd(ifd0, 8)
	exif_off := uint32(8 + len(first))
	if len(exif_ifd) > 0 {
		ifd0[len(ifd0)-1] = Long(TagExifIFD, exif_off)
		first = encode_ifd(ifd0, 8)
	}
	ans := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	ans = append(ans, first...)
	if len(exif_ifd) > 0 {
		ans = append(ans, encode_ifd(exif_ifd, exif_off)...)
	}
	return ans
}

// Camera describes the fields of a typical camera EXIF block. Zero values
// are left out of the block.
type Camera struct {
	Make, Model               string
	FNumber, ExposureTime     [2]uint32
	FocalLength               [2]uint32
	Aperture, ShutterSpeed    [2]uint32
	ISO, Orientation, Program uint16
}

// Canon is the camera used by the end-to-end scenario.
var Canon = Camera{
	Make: "Canon", Model: "EOS R5",
	FNumber: [2]uint32{28, 10}, ExposureTime: [2]uint32{1, 200},
	ISO: 400, FocalLength: [2]uint32{50, 1},
}

func (c Camera) TIFF() []byte {
	var ifd0, sub []Entry
	if c.Make != "" {
		ifd0 = append(ifd0, ASCII(TagMake, c.Make))
	}
	if c.Model != "" {
		ifd0 = append(ifd0, ASCII(TagModel, c.Model))
	}
	if c.Orientation != 0 {
		ifd0 = append(ifd0, Short(TagOrientation, c.Orientation))
	}
	rat := func(tag uint16, v [2]uint32) {
		if v[1] != 0 {
			sub = append(sub, Rational(tag, v[0], v[1]))
		}
	}
	rat(TagExposureTime, c.ExposureTime)
	rat(TagFNumber, c.FNumber)
	if c.Program != 0 {
		sub = append(sub, Short(TagExposureProgram, c.Program))
	}
	if c.ISO != 0 {
		sub = append(sub, Short(TagISO, c.ISO))
	}
	rat(TagShutterSpeed, c.ShutterSpeed)
	rat(TagAperture, c.Aperture)
	rat(TagFocalLength, c.FocalLength)
	return TIFF(ifd0, sub)
}

// Pixels returns a w x h image with a simple gradient.
func Pixels(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(1, w-1)), G: uint8(y * 255 / max(1, h-1)), B: 0x80, A: 0xff})
		}
	}
	return img
}

// JPEG encodes img and inserts the given APP segments right after SOI.
func JPEG(t testing.TB, img image.Image, segments ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encoding fixture: %s", err)
	}
	out := append([]byte{}, buf.Bytes()[:2]...)
	for _, s := range segments {
		out = append(out, s...)
	}
	return append(out, buf.Bytes()[2:]...)
}

// Segment wraps payload in a JPEG marker segment.
func Segment(t testing.TB, marker byte, payload []byte) []byte {
	t.Helper()
	length := len(payload) + 2
	if length > 0xffff {
		t.Fatalf("segment payload too large: %d", length)
	}
	return append([]byte{0xff, marker, byte(length >> 8), byte(length)}, payload...)
}

// ExifSegment is the APP1 segment carrying tiff.
func ExifSegment(t testing.TB, tiff []byte) []byte {
	return Segment(t, 0xe1, append([]byte("Exif\x00\x00"), tiff...))
}

// XMPSegment is the APP1 segment carrying an XMP packet.
func XMPSegment(t testing.TB, packet string) []byte {
	return Segment(t, 0xe1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...))
}

// IPTC is the APP13 payload of a Photoshop image resource block holding the
// given record 2 datasets.
func IPTC(datasets map[byte]string) []byte {
	be := binary.BigEndian
	var iptc []byte
	for _, ds := range []byte{5, 25, 80, 90, 101, 105, 110, 116, 120} {
		if v, ok := datasets[ds]; ok {
			iptc = append(iptc, 0x1c, 2, ds)
			iptc = be.AppendUint16(iptc, uint16(len(v)))
			iptc = append(iptc, v...)
		}
	}
	out := append([]byte("Photoshop 3.0\x00"), "8BIM"...)
	out = be.AppendUint16(out, 0x0404)
	out = append(out, 0, 0)
	out = be.AppendUint32(out, uint32(len(iptc)))
	out = append(out, iptc...)
	if len(iptc)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

// CameraJPEG is a w x h JPEG carrying the EXIF block of c.
func CameraJPEG(t testing.TB, c Camera, w, h int) []byte {
	t.Helper()
	return JPEG(t, Pixels(w, h), ExifSegment(t, c.TIFF()))
}

// PNG encodes img and inserts extra chunks (already framed) after IHDR.
func PNG(t testing.TB, img image.Image, chunks ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %s", err)
	}
	b := buf.Bytes()
	// signature (8) + IHDR chunk (4 length + 4 type + 13 data + 4 crc)
	const ihdr_end = 8 + 25
	out := append([]byte{}, b[:ihdr_end]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, b[ihdr_end:]...)
}

// Chunk frames data as a PNG chunk.
func Chunk(kind string, data []byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	out = append(out, kind...)
	out = append(out, data...)
	return binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(out[4:]))
}

// WebPChunk is one RIFF chunk of a WebP container.
type WebPChunk struct {
	FourCC string
	Data   []byte
}

// WebPContainer builds a RIFF/WEBP container out of chunks. The result is
// only good for metadata locating, it holds no decodable bitstream.
func WebPContainer(chunks ...WebPChunk) []byte {
	body := []byte("WEBP")
	for _, c := range chunks {
		body = append(body, c.FourCC...)
		body = le.AppendUint32(body, uint32(len(c.Data)))
		body = append(body, c.Data...)
		if len(c.Data)%2 == 1 {
			body = append(body, 0)
		}
	}
	out := append([]byte("RIFF"), le.AppendUint32(nil, uint32(len(body)))...)
	return append(out, body...)
}

// ICC builds a minimal ICC profile whose only tag is the profile
// description, stored as a v4 multiLocalizedUnicodeType when mluc is set
// and as a v2 textDescriptionType otherwise.
func ICC(description string, mluc bool) []byte {
	be := binary.BigEndian
	var desc []byte
	if mluc {
		units := utf16.Encode([]rune(description))
		desc = append([]byte("mluc"), 0, 0, 0, 0)
		desc = be.AppendUint32(desc, 1)
		desc = be.AppendUint32(desc, 12)
		desc = append(desc, "enUS"...)
		desc = be.AppendUint32(desc, uint32(len(units)*2))
		desc = be.AppendUint32(desc, 28)
		for _, u := range units {
			desc = be.AppendUint16(desc, u)
		}
	} else {
		desc = append([]byte("desc"), 0, 0, 0, 0)
		desc = be.AppendUint32(desc, uint32(len(description)+1))
		desc = append(desc, description...)
		desc = append(desc, 0)
	}
	const table_end = 128 + 4 + 12
	header := make([]byte, 128)
	copy(header[36:], "acsp")
	out := be.AppendUint32(header, 1)
	out = append(out, "desc"...)
	out = be.AppendUint32(out, table_end)
	out = be.AppendUint32(out, uint32(len(desc)))
	out = append(out, desc...)
	be.PutUint32(out, uint32(len(out)))
	return out
}
