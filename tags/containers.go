package tags

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

var (
	exifHeader = []byte("Exif\x00\x00")
	xmpHeader  = []byte("http://ns.adobe.com/xap/1.0/\x00")
	iccHeader  = []byte("ICC_PROFILE\x00")
	iptcHeader = []byte("Photoshop 3.0\x00")
)

const xmpKeyword = "XML:com.adobe.xmp"

const (
	jpeg_APP1  = 0xe1
	jpeg_APP2  = 0xe2
	jpeg_APP13 = 0xed
	jpeg_SOS   = 0xda
	jpeg_EOI   = 0xd9
)

func truncated(what string, offset int) error {
	return fmt.Errorf("%w: %s truncated at offset %d", ErrMalformed, what, offset)
}

func locate_jpeg(data []byte, md *Blocks) error {
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xff {
			return fmt.Errorf("%w: expected a marker at offset %d", ErrMalformed, pos)
		}
		marker := data[pos+1]
		pos += 2
		switch {
		case marker == 0xff:
			// fill byte, the next byte may start the real marker
			pos--
			continue
		case marker == 0x01, marker >= 0xd0 && marker <= 0xd8:
			continue
		case marker == jpeg_SOS, marker == jpeg_EOI:
			return nil
		}
		if pos+2 > len(data) {
			return truncated("segment header", pos)
		}
		seglen := int(binary.BigEndian.Uint16(data[pos:]))
		if seglen < 2 || pos+seglen > len(data) {
			return truncated("segment", pos)
		}
		payload := data[pos+2 : pos+seglen]
		pos += seglen
		switch marker {
		case jpeg_APP1:
			switch {
			case bytes.HasPrefix(payload, exifHeader):
				if len(md.exifData) == 0 {
					md.exifData = payload[len(exifHeader):]
				}
			case bytes.HasPrefix(payload, xmpHeader):
				if md.XMP == nil {
					md.XMP = payload[len(xmpHeader):]
				}
			}
		case jpeg_APP2:
			// ICC profiles may span several segments, each prefixed by a
			// sequence number and the total count
			if bytes.HasPrefix(payload, iccHeader) && len(payload) >= len(iccHeader)+2 {
				md.ICC = append(md.ICC, payload[len(iccHeader)+2:]...)
			}
		case jpeg_APP13:
			if bytes.HasPrefix(payload, iptcHeader) && md.IPTC == nil {
				md.IPTC = payload[len(iptcHeader):]
			}
		}
	}
	return nil
}

func locate_png(data []byte, md *Blocks) error {
	pos := 8 // signature
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		chunk_type := string(data[pos+4 : pos+8])
		start := pos + 8
		end := start + length
		if length < 0 || end+4 > len(data) {
			return truncated(chunk_type+" chunk", pos)
		}
		chunk := data[start:end]
		switch chunk_type {
		case "eXIf":
			md.exifData = bytes.TrimPrefix(chunk, exifHeader)
		case "iTXt":
			if keyword, text, err := parse_itxt(chunk); err != nil {
				return err
			} else if keyword == xmpKeyword && md.XMP == nil {
				md.XMP = text
			}
		case "iCCP":
			profile, err := parse_iccp(chunk)
			if err != nil {
				return err
			}
			md.ICC = profile
		case "IEND":
			return nil
		}
		pos = end + 4
	}
	return nil
}

// parse_itxt splits an iTXt chunk into its keyword and (decompressed) text.
func parse_itxt(chunk []byte) (keyword string, text []byte, err error) {
	k, rest, found := bytes.Cut(chunk, []byte{0})
	if !found || len(rest) < 2 {
		return "", nil, fmt.Errorf("%w: short iTXt chunk", ErrMalformed)
	}
	compressed := rest[0] == 1
	rest = rest[2:]
	// language tag and translated keyword
	for range 2 {
		if _, rest, found = bytes.Cut(rest, []byte{0}); !found {
			return "", nil, fmt.Errorf("%w: short iTXt chunk", ErrMalformed)
		}
	}
	if !compressed {
		return string(k), rest, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return "", nil, fmt.Errorf("%w: iTXt: %s", ErrMalformed, err)
	}
	defer zr.Close()
	if text, err = io.ReadAll(zr); err != nil {
		return "", nil, fmt.Errorf("%w: iTXt: %s", ErrMalformed, err)
	}
	return string(k), text, nil
}

// parse_iccp returns the decompressed profile of an iCCP chunk.
func parse_iccp(chunk []byte) ([]byte, error) {
	_, rest, found := bytes.Cut(chunk, []byte{0})
	if !found || len(rest) < 1 {
		return nil, fmt.Errorf("%w: short iCCP chunk", ErrMalformed)
	}
	zr, err := zlib.NewReader(bytes.NewReader(rest[1:]))
	if err != nil {
		return nil, fmt.Errorf("%w: iCCP: %s", ErrMalformed, err)
	}
	defer zr.Close()
	profile, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: iCCP: %s", ErrMalformed, err)
	}
	return profile, nil
}

func locate_webp(data []byte, md *Blocks) error {
	pos := 12
	for pos+8 <= len(data) {
		fourcc := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		start := pos + 8
		end := start + size
		if size < 0 || end > len(data) {
			return truncated(fourcc+" chunk", pos)
		}
		payload := data[start:end]
		switch fourcc {
		case "EXIF":
			md.exifData = bytes.TrimPrefix(payload, exifHeader)
		case "XMP ":
			md.XMP = payload
		case "ICCP":
			md.ICC = payload
		}
		pos = end + size&1
	}
	return nil
}

// TIFF files are themselves the EXIF block.
func locate_tiff(data []byte, md *Blocks) error {
	md.exifData = data
	return nil
}
