// Package tags is the metadata tag decoder used by the extractor. It finds
// the metadata blocks embedded in an image container and turns them into a
// flat mapping of tag names to values, optionally restricted to a pick list.
package tags

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

var _ = fmt.Print

// Block selects a kind of embedded metadata segment.
type Block uint8

const (
	BlockTIFF Block = 1 << iota
	BlockXMP
	BlockIPTC
	BlockICC

	AllBlocks = BlockTIFF | BlockXMP | BlockIPTC | BlockICC
)

func (b Block) String() string {
	var names []string
	for _, x := range []struct {
		b    Block
		name string
	}{{BlockTIFF, "TIFF"}, {BlockXMP, "XMP"}, {BlockIPTC, "IPTC"}, {BlockICC, "ICC"}} {
		if b&x.b != 0 {
			names = append(names, x.name)
		}
	}
	return strings.Join(names, "|")
}

func (b Block) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// Pseudo tags reporting the presence of blocks that carry no camera tags.
const (
	IPTCData   = "IPTCData"
	ICCProfile = "ICCProfile"
)

// Options control which blocks are parsed and which tags are retained.
type Options struct {
	Blocks Block
	// Pick restricts the result to these tag names. Empty means every tag.
	Pick []string
}

func (o Options) picks(name string) bool {
	if len(o.Pick) == 0 {
		return true
	}
	for _, q := range o.Pick {
		if q == name {
			return true
		}
	}
	return false
}

// Value is a single decoded tag.
type Value struct {
	Block   Block   `json:"block"`
	Text    string  `json:"text"`
	Number  float64 `json:"number,omitempty"`
	Numeric bool    `json:"numeric,omitempty"`
}

func (v Value) String() string { return v.Text }

func number_value(b Block, n float64) Value {
	return Value{Block: b, Number: n, Numeric: true, Text: FormatNumber(n)}
}

// FormatNumber renders n in its shortest round-trip decimal form, so 2.8
// stays 2.8 and 50 prints without a fraction.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Tags maps tag names to decoded values.
type Tags map[string]Value

// String returns the text of the first of names that is present and non-empty.
func (t Tags) String(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := t[name]; ok && v.Text != "" {
			return v.Text, true
		}
	}
	return "", false
}

// Number returns the first of names that holds a numeric value.
func (t Tags) Number(names ...string) (float64, bool) {
	for _, name := range names {
		if v, ok := t[name]; ok && v.Numeric && !math.IsNaN(v.Number) {
			return v.Number, true
		}
	}
	return 0, false
}

// Names returns the tag names in t.
func (t Tags) Names() []string {
	ans := make([]string, 0, len(t))
	for k := range t {
		ans = append(ans, k)
	}
	return ans
}

// Decoder turns raw image bytes into tags. A nil result with a nil error
// means the image carries no metadata.
type Decoder interface {
	Decode(data []byte, opts Options) (Tags, error)
}

// ExifDecoder is the default Decoder, backed by goexif for TIFF/EXIF blocks
// and imagemeta for XMP and IPTC.
type ExifDecoder struct{}

// Decode is ExifDecoder{}.Decode.
func Decode(data []byte, opts Options) (Tags, error) {
	return ExifDecoder{}.Decode(data, opts)
}

func (ExifDecoder) Decode(data []byte, opts Options) (Tags, error) {
	md, err := Locate(data)
	if err != nil {
		return nil, err
	}
	if md.Empty() {
		return nil, nil
	}
	ans := Tags{}
	if opts.Blocks&BlockTIFF != 0 {
		if err = read_exif(md, opts, ans); err != nil {
			return nil, err
		}
	}
	if err = read_xmp_iptc(data, md, opts, ans); err != nil {
		return nil, err
	}
	if opts.Blocks&BlockIPTC != 0 && len(md.IPTC) > 0 && opts.picks(IPTCData) {
		ans[IPTCData] = number_value(BlockIPTC, float64(len(md.IPTC)))
	}
	if opts.Blocks&BlockICC != 0 && len(md.ICC) > 0 {
		if opts.picks(ICCProfile) {
			ans[ICCProfile] = number_value(BlockICC, float64(len(md.ICC)))
		}
		if opts.picks(ICCDescription) {
			// a profile that cannot be read is not a metadata error
			if desc, err := icc_description(md.ICC); err == nil && desc != "" {
				ans[ICCDescription] = Value{Block: BlockICC, Text: desc}
			}
		}
	}
	if len(ans) == 0 {
		return nil, nil
	}
	return ans, nil
}

// goexif has no separate name for the ISO alias, both refer to tag 0x8827
var field_aliases = map[string]exif.FieldName{
	"ISO": exif.ISOSpeedRatings,
}

func field_name(name string) exif.FieldName {
	if f, ok := field_aliases[name]; ok {
		return f
	}
	return exif.FieldName(name)
}

type walker struct{ tags Tags }

func (w walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if v, ok := value_from_tag(tag); ok {
		w.tags[string(name)] = v
	}
	return nil
}

func read_exif(md *Blocks, opts Options, ans Tags) error {
	x, err := md.Exif()
	if err != nil {
		return err
	}
	if x == nil {
		return nil
	}
	if len(opts.Pick) == 0 {
		return x.Walk(walker{ans})
	}
	for _, name := range opts.Pick {
		tag, err := x.Get(field_name(name))
		if err != nil {
			continue
		}
		if v, ok := value_from_tag(tag); ok {
			ans[name] = v
		}
	}
	return nil
}

func value_from_tag(tag *tiff.Tag) (v Value, ok bool) {
	v.Block = BlockTIFF
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return v, false
		}
		v.Text = strings.TrimSpace(s)
		return v, v.Text != ""
	case tiff.IntVal:
		n, err := tag.Int64(0)
		if err != nil {
			return v, false
		}
		return number_value(BlockTIFF, float64(n)), true
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil || den == 0 {
			return v, false
		}
		return number_value(BlockTIFF, float64(num)/float64(den)), true
	case tiff.FloatVal:
		f, err := tag.Float(0)
		if err != nil {
			return v, false
		}
		return number_value(BlockTIFF, f), true
	}
	v.Text = tag.String()
	return v, true
}
