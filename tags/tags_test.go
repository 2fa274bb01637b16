package tags

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/photostrip/photostrip/internal/exiftest"
	"github.com/photostrip/photostrip/types"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Println

var camera_picks = []string{
	"Make", "Model", "FNumber", "ExposureTime", "ISO",
	"ISOSpeedRatings", "ExposureProgram", "FocalLength",
	"ApertureValue", "ShutterSpeedValue",
}

const xmp_packet = `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:tiff="http://ns.adobe.com/tiff/1.0/"
    xmlns:exif="http://ns.adobe.com/exif/1.0/"
    xmlns:exifEX="http://cipa.jp/exif/1.0/"
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    tiff:Make="FUJIFILM"
    tiff:Model="X-T5"
    exif:FNumber="56/10"
    exif:ExposureTime="1/250"
    exifEX:PhotographicSensitivity="800">
   <dc:subject>
    <rdf:Bag>
     <rdf:li>street</rdf:li>
    </rdf:Bag>
   </dc:subject>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

func TestLocate(t *testing.T) {
	tiff := exiftest.Canon.TIFF()

	t.Run("finds EXIF, XMP, ICC and IPTC segments in JPEG", func(t *testing.T) {
		data := exiftest.JPEG(t, exiftest.Pixels(4, 4),
			exiftest.ExifSegment(t, tiff),
			exiftest.XMPSegment(t, xmp_packet),
			exiftest.Segment(t, 0xe2, append([]byte("ICC_PROFILE\x00\x01\x02"), "part1"...)),
			exiftest.Segment(t, 0xe2, append([]byte("ICC_PROFILE\x00\x02\x02"), "part2"...)),
			exiftest.Segment(t, 0xed, append([]byte("Photoshop 3.0\x00"), "8BIM"...)),
		)
		md, err := Locate(data)
		require.NoError(t, err)
		require.Equal(t, types.JPEG, md.Format)
		require.Equal(t, tiff, md.ExifData())
		require.Equal(t, xmp_packet, string(md.XMP))
		require.Equal(t, "part1part2", string(md.ICC))
		require.Equal(t, "8BIM", string(md.IPTC))
		x, err := md.Exif()
		require.NoError(t, err)
		require.NotNil(t, x)
	})

	t.Run("finds eXIf and XMP iTXt chunks in PNG", func(t *testing.T) {
		itxt := append([]byte(xmpKeyword), 0, 0, 0, 0, 0)
		itxt = append(itxt, xmp_packet...)
		data := exiftest.PNG(t, exiftest.Pixels(3, 3), exiftest.Chunk("eXIf", tiff), exiftest.Chunk("iTXt", itxt))
		md, err := Locate(data)
		require.NoError(t, err)
		require.Equal(t, types.PNG, md.Format)
		require.Equal(t, tiff, md.ExifData())
		require.Equal(t, xmp_packet, string(md.XMP))
	})

	t.Run("decompresses iCCP profiles in PNG", func(t *testing.T) {
		profile := exiftest.ICC("sRGB IEC61966-2.1", false)
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		_, err := zw.Write(profile)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		data := exiftest.PNG(t, exiftest.Pixels(2, 2), exiftest.Chunk("iCCP", append([]byte("icc\x00\x00"), z.Bytes()...)))
		md, err := Locate(data)
		require.NoError(t, err)
		require.Equal(t, profile, md.ICC)
		desc, err := icc_description(md.ICC)
		require.NoError(t, err)
		require.Equal(t, "sRGB IEC61966-2.1", desc)
	})

	t.Run("finds EXIF and ICCP chunks in WebP", func(t *testing.T) {
		data := exiftest.WebPContainer(
			exiftest.WebPChunk{FourCC: "VP8X", Data: make([]byte, 10)},
			exiftest.WebPChunk{FourCC: "ICCP", Data: []byte("icc")},
			exiftest.WebPChunk{FourCC: "EXIF", Data: append([]byte("Exif\x00\x00"), tiff...)},
		)
		md, err := Locate(data)
		require.NoError(t, err)
		require.Equal(t, types.WEBP, md.Format)
		require.Equal(t, tiff, md.ExifData())
		require.Equal(t, "icc", string(md.ICC))
	})

	t.Run("a TIFF file is its own EXIF block", func(t *testing.T) {
		md, err := Locate(tiff)
		require.NoError(t, err)
		require.Equal(t, types.TIFF, md.Format)
		require.Equal(t, tiff, md.ExifData())
	})

	t.Run("unrecognised data has no blocks", func(t *testing.T) {
		md, err := Locate([]byte("not an image format simply some plain text"))
		require.NoError(t, err)
		require.True(t, md.Empty())
		x, err := md.Exif()
		require.NoError(t, err)
		require.Nil(t, x)
	})

	t.Run("truncated segment is malformed", func(t *testing.T) {
		data := []byte{0xff, 0xd8, 0xff, 0xe1, 0x40, 0x00, 'E', 'x', 'i', 'f'}
		_, err := Locate(data)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrMalformed))
	})
}

func TestDecode(t *testing.T) {
	all := Options{Blocks: AllBlocks, Pick: camera_picks}

	t.Run("picked camera tags", func(t *testing.T) {
		ans, err := Decode(exiftest.CameraJPEG(t, exiftest.Canon, 8, 6), all)
		require.NoError(t, err)
		names := ans.Names()
		sort.Strings(names)
		require.Equal(t, []string{"ExposureTime", "FNumber", "FocalLength", "ISO", "ISOSpeedRatings", "Make", "Model"}, names)
		s, _ := ans.String("Make")
		require.Equal(t, "Canon", s)
		s, _ = ans.String("Model")
		require.Equal(t, "EOS R5", s)
		n, ok := ans.Number("FNumber")
		require.True(t, ok)
		require.InDelta(t, 2.8, n, 1e-9)
		require.Equal(t, "2.8", ans["FNumber"].Text)
		n, _ = ans.Number("ExposureTime")
		require.InDelta(t, 0.005, n, 1e-12)
		require.Equal(t, "400", ans["ISO"].Text)
		require.Equal(t, "50", ans["FocalLength"].Text)
		require.Equal(t, BlockTIFF, ans["Make"].Block)
	})

	t.Run("unrestricted read returns every tag", func(t *testing.T) {
		ans, err := Decode(exiftest.CameraJPEG(t, exiftest.Canon, 8, 6), Options{Blocks: AllBlocks})
		require.NoError(t, err)
		require.Contains(t, ans, "Make")
		require.Contains(t, ans, "ISOSpeedRatings")
	})

	t.Run("XMP fills tags missing from EXIF", func(t *testing.T) {
		tiff := exiftest.Camera{Make: "Canon"}.TIFF()
		data := exiftest.JPEG(t, exiftest.Pixels(4, 4), exiftest.ExifSegment(t, tiff), exiftest.XMPSegment(t, xmp_packet))
		ans, err := Decode(data, all)
		require.NoError(t, err)
		require.Equal(t, "Canon", ans["Make"].Text)
		require.Equal(t, BlockTIFF, ans["Make"].Block)
		require.Equal(t, "X-T5", ans["Model"].Text)
		require.Equal(t, BlockXMP, ans["Model"].Block)
		require.Equal(t, "5.6", ans["FNumber"].Text)
		require.Equal(t, "0.004", ans["ExposureTime"].Text)
		require.Equal(t, "800", ans["ISO"].Text)
	})

	t.Run("XMP is skipped when its block is not requested", func(t *testing.T) {
		data := exiftest.JPEG(t, exiftest.Pixels(4, 4), exiftest.XMPSegment(t, xmp_packet))
		ans, err := Decode(data, Options{Blocks: BlockTIFF, Pick: camera_picks})
		require.NoError(t, err)
		require.Nil(t, ans)
	})

	t.Run("no metadata yields nil", func(t *testing.T) {
		ans, err := Decode(exiftest.JPEG(t, exiftest.Pixels(4, 4)), all)
		require.NoError(t, err)
		require.Nil(t, ans)
	})

	t.Run("ICC presence is reported only when picked", func(t *testing.T) {
		data := exiftest.JPEG(t, exiftest.Pixels(4, 4), exiftest.Segment(t, 0xe2, append([]byte("ICC_PROFILE\x00\x01\x01"), "profile"...)))
		ans, err := Decode(data, all)
		require.NoError(t, err)
		require.Nil(t, ans)
		ans, err = Decode(data, Options{Blocks: AllBlocks})
		require.NoError(t, err)
		require.Equal(t, float64(len("profile")), ans[ICCProfile].Number)
	})

	t.Run("ICC profile description", func(t *testing.T) {
		for _, mluc := range []bool{false, true} {
			profile := exiftest.ICC("Display P3", mluc)
			half := len(profile) / 2
			data := exiftest.JPEG(t, exiftest.Pixels(4, 4),
				exiftest.Segment(t, 0xe2, append([]byte("ICC_PROFILE\x00\x01\x02"), profile[:half]...)),
				exiftest.Segment(t, 0xe2, append([]byte("ICC_PROFILE\x00\x02\x02"), profile[half:]...)),
			)
			ans, err := Decode(data, Options{Blocks: BlockICC})
			require.NoError(t, err)
			require.Equal(t, "Display P3", ans[ICCDescription].Text, "mluc: %v", mluc)
			require.Equal(t, float64(len(profile)), ans[ICCProfile].Number)
		}
		_, err := icc_description([]byte("short"))
		require.Error(t, err)
	})

	t.Run("corrupt EXIF block is an error", func(t *testing.T) {
		data := exiftest.JPEG(t, exiftest.Pixels(4, 4), exiftest.ExifSegment(t, []byte("II*\x00\xff\xff\xff\x7f")))
		_, err := Decode(data, all)
		require.Error(t, err)
	})

	t.Run("oversized IFD entry is malformed", func(t *testing.T) {
		tiff := exiftest.TIFF([]exiftest.Entry{exiftest.ASCII(exiftest.TagMake, "Canon")},
			[]exiftest.Entry{exiftest.Oversized(exiftest.TagISO)})
		data := exiftest.JPEG(t, exiftest.Pixels(4, 4), exiftest.ExifSegment(t, tiff))
		_, err := Decode(data, all)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("IPTC datasets are decoded", func(t *testing.T) {
		data := exiftest.JPEG(t, exiftest.Pixels(4, 4), exiftest.Segment(t, 0xed, exiftest.IPTC(map[byte]string{0x69: "Harbour at dawn"})))
		ans, err := Decode(data, Options{Blocks: BlockIPTC})
		require.NoError(t, err)
		require.Contains(t, ans, IPTCData)
		require.Equal(t, "Harbour at dawn", ans["Headline"].Text)
		require.Equal(t, BlockIPTC, ans["Headline"].Block)
	})
}

func TestCheckTIFF(t *testing.T) {
	require.NoError(t, check_tiff(exiftest.Canon.TIFF()))

	for name, tiff := range map[string][]byte{
		"count overflows the value size": exiftest.TIFF(nil, []exiftest.Entry{exiftest.Oversized(exiftest.TagISO)}),
		"value past the block": exiftest.TIFF([]exiftest.Entry{
			{Tag: exiftest.TagModel, Type: exiftest.TypeASCII, Count: 64, Data: make([]byte, 8)},
		}, nil),
		"IFD chain loops back": {
			'I', 'I', 42, 0, 8, 0, 0, 0,
			1, 0, 0x0f, 0x01, 2, 0, 2, 0, 0, 0, 'A', 0, 0, 0,
			8, 0, 0, 0,
		},
		"sub-IFD out of range": exiftest.TIFF([]exiftest.Entry{exiftest.Long(exiftest.TagExifIFD, 0xfffffff0)}, nil),
		"bad byte order":       []byte("XX*\x00\x08\x00\x00\x00"),
		"short header":         []byte("II*"),
	} {
		err := check_tiff(tiff)
		require.ErrorIs(t, err, ErrMalformed, name)
	}

	t.Run("Exif reports the rejection", func(t *testing.T) {
		md := &Blocks{exifData: exiftest.TIFF(nil, []exiftest.Entry{exiftest.Oversized(exiftest.TagISO)})}
		x, err := md.Exif()
		require.Nil(t, x)
		require.ErrorIs(t, err, ErrMalformed)
		_, err = md.Exif()
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestFormatNumber(t *testing.T) {
	for n, expected := range map[float64]string{
		2.8:   "2.8",
		50:    "50",
		400:   "400",
		0.005: "0.005",
		1.5:   "1.5",
	} {
		require.Equal(t, expected, FormatNumber(n))
	}
}

func TestBlockString(t *testing.T) {
	require.Equal(t, "TIFF|XMP|IPTC|ICC", AllBlocks.String())
	require.Equal(t, "XMP", BlockXMP.String())
	b, err := json.Marshal(Tags{"FNumber": number_value(BlockTIFF, 2.8)})
	require.NoError(t, err)
	require.JSONEq(t, `{"FNumber": {"block": "TIFF", "text": "2.8", "number": 2.8, "numeric": true}}`, string(b))
}
