// Package loader decodes raw image bytes into pixels, applying the EXIF
// orientation of the image by default.
package loader

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/kettek/apng"
	"github.com/photostrip/photostrip/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var _ = fmt.Print

// MaxAdvisoryDimension is the width or height above which a warning is
// logged. Larger images are still decoded and used at full size.
const MaxAdvisoryDimension = 4096

// LoadError is returned when an image cannot be decoded. The message is
// fixed, the underlying decoder error is available via Unwrap.
type LoadError struct {
	cause error
}

func (e *LoadError) Error() string { return "image failed to load" }
func (e *LoadError) Unwrap() error { return e.cause }

// Cause returns the decoder error, for use with github.com/pkg/errors.
func (e *LoadError) Cause() error { return e.cause }

// Decoded is a loaded image. For animated images Image is the default image
// or the first frame, Frames is the number of animation frames found.
type Decoded struct {
	Image         image.Image
	Width, Height int
	Format        types.Format
	Frames        int
	Orientation   Orientation
}

type Loader struct {
	log             zerolog.Logger
	autoOrientation bool
}

// Option sets an optional parameter of a Loader.
type Option func(*Loader)

func WithLogger(l zerolog.Logger) Option {
	return func(ld *Loader) {
		ld.log = l
	}
}

// WithAutoOrientation sets the auto-orientation mode. If enabled, the image
// is transformed after decoding according to its EXIF orientation tag (if
// present). By default it's enabled.
func WithAutoOrientation(enabled bool) Option {
	return func(ld *Loader) {
		ld.autoOrientation = enabled
	}
}

func New(opts ...Option) *Loader {
	ans := &Loader{log: zerolog.Nop(), autoOrientation: true}
	for _, option := range opts {
		option(ans)
	}
	return ans
}

func decode_png(data []byte) (image.Image, int, error) {
	p, err := apng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, 0, errors.Wrap(err, "decoding PNG")
	}
	var def, first image.Image
	n := 0
	for _, f := range p.Frames {
		if f.IsDefault {
			def = f.Image
			continue
		}
		if first == nil {
			first = f.Image
		}
		n++
	}
	switch {
	case def != nil:
		return def, max(n, 1), nil
	case first != nil:
		return first, n, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, errors.Wrap(err, "decoding PNG")
	}
	return img, 1, nil
}

func decode_gif(data []byte) (image.Image, int, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, 0, errors.Wrap(err, "decoding GIF")
	}
	if len(g.Image) == 0 {
		return nil, 0, errors.New("GIF has no frames")
	}
	frame := g.Image[0]
	screen := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if screen.Empty() {
		screen = frame.Bounds()
	}
	ans := image.NewRGBA(screen)
	draw.Draw(ans, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
	return ans, len(g.Image), nil
}

func decode_other(data []byte) (image.Image, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, errors.Wrap(err, "decoding image")
	}
	return img, 1, nil
}

// Load decodes img. Any failure is reported as a *LoadError.
func (ld *Loader) Load(img types.RawImage) (*Decoded, error) {
	if len(img.Data) == 0 {
		return nil, &LoadError{cause: errors.New("no image data")}
	}
	format := types.DetectFormat(img.Data)
	decoder := decode_other
	switch format {
	case types.PNG:
		decoder = decode_png
	case types.GIF:
		decoder = decode_gif
	}
	pixels, frames, err := decoder(img.Data)
	if err != nil {
		ld.log.Error().Err(err).Str("mime", img.MIMEType).Msg("image failed to load")
		return nil, &LoadError{cause: err}
	}
	ans := &Decoded{Image: pixels, Format: format, Frames: frames}
	if frames > 1 {
		ld.log.Debug().Int("frames", frames).Msg("animated image, using the first frame")
	}
	if ld.autoOrientation {
		ans.Orientation = ReadOrientation(img.Data)
		if ans.Orientation > OrientationNormal {
			if ans.Image, err = Orient(ans.Image, ans.Orientation); err != nil {
				return nil, &LoadError{cause: errors.Wrap(err, "applying EXIF orientation")}
			}
			ld.log.Debug().Int("orientation", int(ans.Orientation)).Msg("applied EXIF orientation")
		}
	}
	b := ans.Image.Bounds()
	ans.Width, ans.Height = b.Dx(), b.Dy()
	if ans.Width > MaxAdvisoryDimension || ans.Height > MaxAdvisoryDimension {
		ld.log.Warn().Int("width", ans.Width).Int("height", ans.Height).Int("max", MaxAdvisoryDimension).
			Msg("image exceeds the advisory maximum dimension, using it at full size")
	}
	return ans, nil
}
