package types

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

var _ = fmt.Print

// Format is an image file format.
type Format int

// Image file formats.
const (
	UNKNOWN Format = iota
	JPEG
	PNG
	GIF
	TIFF
	WEBP
	BMP
)

var FormatExts = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"apng": PNG,
	"gif":  GIF,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WEBP,
	"bmp":  BMP,
}

var formatNames = map[Format]string{
	JPEG: "JPEG",
	PNG:  "PNG",
	GIF:  "GIF",
	TIFF: "TIFF",
	WEBP: "WEBP",
	BMP:  "BMP",
}

var formatMIMEs = map[Format]string{
	JPEG: "image/jpeg",
	PNG:  "image/png",
	GIF:  "image/gif",
	TIFF: "image/tiff",
	WEBP: "image/webp",
	BMP:  "image/bmp",
}

var mimeFormats = map[string]Format{
	"image/jpeg":     JPEG,
	"image/jpg":      JPEG,
	"image/pjpeg":    JPEG,
	"image/png":      PNG,
	"image/apng":     PNG,
	"image/gif":      GIF,
	"image/tiff":     TIFF,
	"image/webp":     WEBP,
	"image/bmp":      BMP,
	"image/x-ms-bmp": BMP,
}

func (f Format) String() string {
	return formatNames[f]
}

// MIMEType returns the canonical MIME type of the format or the empty string
// for UNKNOWN.
func (f Format) MIMEType() string {
	return formatMIMEs[f]
}

// RawImage is an undecoded image as handed over by the caller. Data is never
// modified by any consumer.
type RawImage struct {
	Data     []byte
	MIMEType string
}

// IsImageMIME reports whether the declared MIME type names an image.
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}

func normalize_mime(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.IndexByte(mime, ';'); idx > -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// FormatFromMIME maps a MIME type (parameters are ignored) to a Format.
func FormatFromMIME(mime string) Format {
	return mimeFormats[normalize_mime(mime)]
}

// MIMEFromFilename returns the MIME type implied by the extension of filename
// or the empty string if the extension is not known.
func MIMEFromFilename(filename string) string {
	f := FormatExts[strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))]
	return f.MIMEType()
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// DetectFormat identifies the container from its leading magic bytes.
func DetectFormat(data []byte) Format {
	switch {
	case len(data) >= 3 && data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff:
		return JPEG
	case bytes.HasPrefix(data, pngSignature):
		return PNG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return GIF
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return WEBP
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	case bytes.HasPrefix(data, []byte("BM")):
		return BMP
	}
	return UNKNOWN
}
