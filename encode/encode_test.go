package encode

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"
	"testing"

	"github.com/photostrip/photostrip/internal/exiftest"
	"github.com/photostrip/photostrip/types"
	"github.com/stretchr/testify/require"
)

func TestOutputFormat(t *testing.T) {
	for mime, expected := range map[string]types.Format{
		"":           types.JPEG,
		"image/jpeg": types.JPEG,
		"image/png":  types.PNG,
		"image/gif":  types.GIF,
		"image/tiff": types.TIFF,
		"image/bmp":  types.BMP,
		"image/webp": types.PNG,
		"image/heic": types.PNG,
		"text/plain": types.PNG,
	} {
		require.Equal(t, expected, OutputFormat(mime), mime)
	}
}

func TestEncode(t *testing.T) {
	src := exiftest.Pixels(16, 12)
	for _, mime := range []string{"image/jpeg", "image/png", "image/gif", "image/tiff", "image/bmp", "image/webp", ""} {
		t.Run(mime, func(t *testing.T) {
			e, err := Bytes(src, mime)
			require.NoError(t, err)
			f := types.DetectFormat(e.Data)
			require.Equal(t, f.MIMEType(), e.MIMEType)
			img, _, err := image.Decode(bytes.NewReader(e.Data))
			require.NoError(t, err)
			require.Equal(t, src.Bounds(), img.Bounds())
		})
	}

	t.Run("PNG is lossless", func(t *testing.T) {
		e, err := Bytes(src, "image/png")
		require.NoError(t, err)
		img, _, err := image.Decode(bytes.NewReader(e.Data))
		require.NoError(t, err)
		for _, p := range []image.Point{{0, 0}, {15, 0}, {7, 11}} {
			r1, g1, b1, a1 := src.At(p.X, p.Y).RGBA()
			r2, g2, b2, a2 := img.At(p.X, p.Y).RGBA()
			require.Equal(t, []uint32{r1, g1, b1, a1}, []uint32{r2, g2, b2, a2})
		}
	})

	t.Run("non image MIME", func(t *testing.T) {
		e, err := Bytes(src, "application/pdf")
		require.NoError(t, err)
		require.Equal(t, "image/png", e.MIMEType)
	})
}

func TestDataURI(t *testing.T) {
	e := Encoded{Data: []byte{1, 2, 3, 250}, MIMEType: "image/png"}
	uri := e.DataURI()
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	require.Equal(t, e.Data, raw)
}
