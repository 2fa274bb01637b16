package tags

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// sizes of the TIFF field types in bytes, indexed by type
var tiff_type_sizes = [...]uint64{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8}

const (
	tag_make        = 0x010f
	tag_exif_ifd    = 0x8769
	tag_gps_ifd     = 0x8825
	tag_interop_ifd = 0xa005
	tag_maker_note  = 0x927c
)

var nikon_maker_note = []byte("Nikon\x00")

type ifd_checker struct {
	data    []byte
	order   binary.ByteOrder
	visited map[uint32]bool
	make    string
}

func malformed_ifd(format string, args ...any) error {
	return fmt.Errorf("%w: TIFF: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// check_tiff walks every IFD goexif will decode out of data: the IFD chain
// and the Exif, GPS and Interop sub-IFDs as well as the maker notes the
// registered mknote parsers read. Entries whose values cannot fit in data,
// offsets outside data and IFD cycles are rejected.
func check_tiff(data []byte) error {
	if len(data) < 8 {
		return malformed_ifd("header truncated")
	}
	c := ifd_checker{data: data, visited: map[uint32]bool{}}
	switch string(data[:2]) {
	case "II":
		c.order = binary.LittleEndian
	case "MM":
		c.order = binary.BigEndian
	default:
		return malformed_ifd("unknown byte order %q", data[:2])
	}
	for offset := c.order.Uint32(data[4:]); offset != 0; {
		next, err := c.dir(offset)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

type ifd_entry struct {
	tag   uint16
	typ   uint16
	count uint32
	value uint32
	size  uint64
}

// dir checks the IFD at offset and the sub-IFDs it links to and returns the
// offset of the next IFD in the chain.
func (c *ifd_checker) dir(offset uint32) (uint32, error) {
	if c.visited[offset] {
		return 0, malformed_ifd("IFD loop at offset %d", offset)
	}
	c.visited[offset] = true
	pos := uint64(offset)
	if pos+2 > uint64(len(c.data)) {
		return 0, malformed_ifd("IFD offset %d out of range", offset)
	}
	n := uint64(c.order.Uint16(c.data[pos:]))
	pos += 2
	if pos+n*12 > uint64(len(c.data)) {
		return 0, malformed_ifd("IFD at offset %d truncated", offset)
	}
	var subdirs []uint32
	var notes *ifd_entry
	for i := range n {
		e := c.entry(c.data[pos+i*12:])
		if int(e.typ) >= len(tiff_type_sizes) || e.typ == 0 {
			// goexif rejects unknown types itself
			continue
		}
		e.size = uint64(e.count) * tiff_type_sizes[e.typ]
		if e.size > uint64(len(c.data)) {
			return 0, malformed_ifd("tag 0x%04x: %d values do not fit in a %d byte block", e.tag, e.count, len(c.data))
		}
		if e.size > 4 && uint64(e.value)+e.size > uint64(len(c.data)) {
			return 0, malformed_ifd("tag 0x%04x: value at offset %d out of range", e.tag, e.value)
		}
		switch e.tag {
		case tag_exif_ifd, tag_gps_ifd, tag_interop_ifd:
			subdirs = append(subdirs, e.value)
		case tag_maker_note:
			notes = &e
		case tag_make:
			if e.typ == 2 {
				c.make = string(bytes.TrimRight(c.value_bytes(e), "\x00 "))
			}
		}
	}
	next := uint32(0)
	if end := pos + n*12; end+4 <= uint64(len(c.data)) {
		next = c.order.Uint32(c.data[end:])
	}
	for _, sub := range subdirs {
		if _, err := c.dir(sub); err != nil {
			return 0, err
		}
	}
	if notes != nil {
		if err := c.maker_note(*notes); err != nil {
			return 0, err
		}
	}
	return next, nil
}

func (c *ifd_checker) entry(b []byte) ifd_entry {
	return ifd_entry{tag: c.order.Uint16(b), typ: c.order.Uint16(b[2:]), count: c.order.Uint32(b[4:]), value: c.order.Uint32(b[8:])}
}

// value_bytes returns the value of e, which is stored in the offset slot
// itself when it fits in four bytes.
func (c *ifd_checker) value_bytes(e ifd_entry) []byte {
	if e.size <= 4 {
		b := make([]byte, 4)
		c.order.PutUint32(b, e.value)
		return b[:e.size]
	}
	return c.data[e.value : uint64(e.value)+e.size]
}

// maker_note checks the maker notes goexif's Canon and Nikon parsers decode.
// Canon notes are a bare IFD addressed relative to the TIFF header, Nikon
// notes embed a TIFF structure of their own.
func (c *ifd_checker) maker_note(e ifd_entry) error {
	if e.size <= 4 {
		return nil
	}
	note := c.value_bytes(e)
	switch {
	case bytes.HasPrefix(note, nikon_maker_note):
		if len(note) < 10 {
			return nil
		}
		if err := check_tiff(note[10:]); err != nil {
			return fmt.Errorf("Nikon maker note: %w", err)
		}
	case c.make == "Canon":
		if _, err := c.dir(e.value); err != nil {
			return fmt.Errorf("Canon maker note: %w", err)
		}
	}
	return nil
}
