package tags

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unicode/utf16"
)

// ICCDescription is the pseudo tag holding the profile description of an
// embedded ICC profile, for example "Display P3".
const ICCDescription = "ICCDescription"

type icc_signature uint32

const (
	icc_profile_file icc_signature = 0x61637370 // 'acsp'
	icc_desc         icc_signature = 0x64657363 // 'desc'
	icc_mluc         icc_signature = 0x6D6C7563 // 'mluc'
)

func (s icc_signature) String() string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(s))
	return "'" + strings.ReplaceAll(string(b[:]), "\x00", " ") + "'"
}

const icc_header_size = 128

// icc_description returns the profile description of an ICC profile,
// reading the v2 textDescriptionType or the v4 multiLocalizedUnicodeType.
func icc_description(profile []byte) (string, error) {
	if len(profile) < icc_header_size+4 {
		return "", fmt.Errorf("ICC profile too short: %d bytes", len(profile))
	}
	if s := icc_signature(binary.BigEndian.Uint32(profile[36:])); s != icc_profile_file {
		return "", fmt.Errorf("expected %v but got %v", icc_profile_file, s)
	}
	count := binary.BigEndian.Uint32(profile[icc_header_size:])
	table := profile[icc_header_size+4:]
	if uint64(count)*12 > uint64(len(table)) {
		return "", fmt.Errorf("ICC tag table exceeds profile length")
	}
	for i := range count {
		entry := table[i*12:]
		if icc_signature(binary.BigEndian.Uint32(entry)) != icc_desc {
			continue
		}
		offset, size := binary.BigEndian.Uint32(entry[4:]), binary.BigEndian.Uint32(entry[8:])
		if uint64(offset)+uint64(size) > uint64(len(profile)) || size < 12 {
			return "", fmt.Errorf("ICC desc tag exceeds profile length")
		}
		return parse_icc_text(profile[offset : offset+size])
	}
	return "", nil
}

func parse_icc_text(data []byte) (string, error) {
	switch s := icc_signature(binary.BigEndian.Uint32(data)); s {
	case icc_desc:
		n := binary.BigEndian.Uint32(data[8:])
		if n <= 1 {
			return "", nil
		}
		if uint64(n) > uint64(len(data)-12) {
			return "", fmt.Errorf("ICC text description exceeds tag length")
		}
		return string(data[12 : 12+n-1]), nil // skip terminating null
	case icc_mluc:
		if len(data) < 16+12 {
			return "", fmt.Errorf("ICC multi-localized text too short")
		}
		count, record_size := binary.BigEndian.Uint32(data[8:]), binary.BigEndian.Uint32(data[12:])
		if count == 0 {
			return "", nil
		}
		if record_size < 12 {
			return "", fmt.Errorf("invalid ICC multi-localized record size: %d", record_size)
		}
		// the first record, which is conventionally enUS
		length, offset := binary.BigEndian.Uint32(data[20:]), binary.BigEndian.Uint32(data[24:])
		if uint64(offset)+uint64(length) > uint64(len(data)) {
			return "", fmt.Errorf("record exceeds tag data length")
		}
		raw := data[offset : offset+length]
		units := make([]uint16, len(raw)/2)
		for i := range units {
			units[i] = binary.BigEndian.Uint16(raw[i*2:])
		}
		return string(utf16.Decode(units)), nil
	default:
		return "", fmt.Errorf("unsupported ICC text type: %v", s)
	}
}
