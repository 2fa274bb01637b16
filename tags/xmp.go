package tags

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/bep/imagemeta"
	"github.com/photostrip/photostrip/types"
)

// XMP namespaces carrying camera properties, by URI and by their usual
// prefix
var xmp_namespaces = map[string]bool{
	"http://ns.adobe.com/tiff/1.0/": true, "tiff": true,
	"http://ns.adobe.com/exif/1.0/": true, "exif": true,
	"http://cipa.jp/exif/1.0/": true, "exifEX": true,
}

// XMP property names that differ from their EXIF tag name
var xmp_renames = map[string][]string{
	"ISOSpeedRatings":         {"ISOSpeedRatings", "ISO"},
	"PhotographicSensitivity": {"ISO"},
}

func xmp_names(local string) []string {
	if names, ok := xmp_renames[local]; ok {
		return names
	}
	return []string{local}
}

var imagemeta_formats = map[types.Format]imagemeta.ImageFormat{
	types.JPEG: imagemeta.JPEG,
	types.PNG:  imagemeta.PNG,
	types.WEBP: imagemeta.WebP,
	types.TIFF: imagemeta.TIFF,
}

// parse_xmp_value understands the rational ("28/10") and decimal number
// forms XMP uses for EXIF values. Anything else is kept as text.
func parse_xmp_value(b Block, s string) Value {
	s = strings.TrimSpace(s)
	if num, den, found := strings.Cut(s, "/"); found {
		n, nerr := strconv.ParseFloat(num, 64)
		d, derr := strconv.ParseFloat(den, 64)
		if nerr == nil && derr == nil && d != 0 {
			return number_value(b, n/d)
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return number_value(b, n)
	}
	return Value{Block: b, Text: s}
}

// tag_text flattens an imagemeta tag value. For arrays (rdf:Seq and
// friends, repeated IPTC datasets) only the first item is kept.
func tag_text(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case []string:
		if len(x) > 0 {
			return x[0]
		}
		return ""
	case []any:
		if len(x) > 0 {
			return tag_text(x[0])
		}
		return ""
	}
	return fmt.Sprint(v)
}

func tag_block(s imagemeta.Source) Block {
	if s == imagemeta.IPTC {
		return BlockIPTC
	}
	return BlockXMP
}

func (o Options) imagemeta_sources(md *Blocks) (sources imagemeta.Source) {
	if o.Blocks&BlockXMP != 0 && len(md.XMP) > 0 {
		sources |= imagemeta.XMP
	}
	if o.Blocks&BlockIPTC != 0 && len(md.IPTC) > 0 {
		sources |= imagemeta.IPTC
	}
	return
}

// read_xmp_iptc decodes the XMP and IPTC properties of data with imagemeta
// and adds those not already present in ans. XMP values are limited to the
// tiff:, exif: and exifEX: namespaces, IPTC datasets keep their names.
func read_xmp_iptc(data []byte, md *Blocks, opts Options, ans Tags) error {
	sources := opts.imagemeta_sources(md)
	format, ok := imagemeta_formats[md.Format]
	if sources == 0 || !ok {
		return nil
	}
	names := func(ti imagemeta.TagInfo) []string {
		if ti.Source == imagemeta.XMP {
			if !xmp_namespaces[ti.Namespace] {
				return nil
			}
			return xmp_names(ti.Tag)
		}
		return []string{ti.Tag}
	}
	err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     sources,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			for _, name := range names(ti) {
				if opts.picks(name) {
					return true
				}
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			text := strings.TrimSpace(tag_text(ti.Value))
			if text == "" {
				return nil
			}
			v := parse_xmp_value(tag_block(ti.Source), text)
			for _, name := range names(ti) {
				if _, exists := ans[name]; !exists && opts.picks(name) {
					ans[name] = v
				}
			}
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("%w: XMP/IPTC: %s", ErrMalformed, err)
	}
	return nil
}
