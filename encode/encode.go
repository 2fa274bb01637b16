// Package encode writes composited images back out in the format of the
// original upload.
package encode

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/photostrip/photostrip/types"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type encodeConfig struct {
	jpegQuality         int
	gifNumColors        int
	gifDrawer           draw.Drawer
	pngCompressionLevel png.CompressionLevel
}

var defaultEncodeConfig = encodeConfig{
	jpegQuality:         100,
	gifNumColors:        256,
	gifDrawer:           draw.FloydSteinberg,
	pngCompressionLevel: png.DefaultCompression,
}

// Option sets an optional parameter for Encode and Bytes.
type Option func(*encodeConfig)

// JPEGQuality sets the output JPEG quality. Quality ranges from 1 to 100
// inclusive, higher is better. Default is 100.
func JPEGQuality(quality int) Option {
	return func(c *encodeConfig) {
		c.jpegQuality = quality
	}
}

// GIFNumColors sets the maximum number of colors used in the GIF-encoded
// image. It ranges from 1 to 256. Default is 256.
func GIFNumColors(numColors int) Option {
	return func(c *encodeConfig) {
		c.gifNumColors = numColors
	}
}

// PNGCompressionLevel sets the compression level of the PNG-encoded image.
// Default is png.DefaultCompression.
func PNGCompressionLevel(level png.CompressionLevel) Option {
	return func(c *encodeConfig) {
		c.pngCompressionLevel = level
	}
}

// OutputFormat returns the format an image requested as mime is written in.
// An empty MIME type means JPEG, any type without an encoder falls back to
// PNG.
func OutputFormat(mime string) types.Format {
	if mime == "" {
		return types.JPEG
	}
	switch f := types.FormatFromMIME(mime); f {
	case types.JPEG, types.PNG, types.GIF, types.TIFF, types.BMP:
		return f
	}
	return types.PNG
}

// Encode writes img to w in the format selected by mime and returns that
// format.
func Encode(w io.Writer, img image.Image, mime string, opts ...Option) (types.Format, error) {
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	format := OutputFormat(mime)
	var err error

	switch format {
	case types.JPEG:
		if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Opaque() {
			rgba := &image.RGBA{
				Pix:    nrgba.Pix,
				Stride: nrgba.Stride,
				Rect:   nrgba.Rect,
			}
			err = jpeg.Encode(w, rgba, &jpeg.Options{Quality: cfg.jpegQuality})
		} else {
			err = jpeg.Encode(w, img, &jpeg.Options{Quality: cfg.jpegQuality})
		}

	case types.PNG:
		encoder := png.Encoder{CompressionLevel: cfg.pngCompressionLevel}
		err = encoder.Encode(w, img)

	case types.GIF:
		err = gif.Encode(w, img, &gif.Options{
			NumColors: cfg.gifNumColors,
			Drawer:    cfg.gifDrawer,
		})

	case types.TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})

	case types.BMP:
		err = bmp.Encode(w, img)
	}
	return format, err
}

// Encoded is an encoded image.
type Encoded struct {
	Data     []byte
	MIMEType string
}

// DataURI returns the image as a base64 data: URI.
func (e Encoded) DataURI() string {
	return "data:" + e.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(e.Data)
}

// Bytes encodes img in memory, the MIME type of the result reflects any
// format fallback.
func Bytes(img image.Image, mime string, opts ...Option) (*Encoded, error) {
	var buf bytes.Buffer
	format, err := Encode(&buf, img, mime, opts...)
	if err != nil {
		return nil, err
	}
	return &Encoded{Data: buf.Bytes(), MIMEType: format.MIMEType()}, nil
}
