package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// TextRenderer draws a single line of text with its baseline at y.
type TextRenderer interface {
	DrawText(dst draw.Image, text string, x, y int, c color.Color, size float64) error
}

// FontRenderer renders text with a TrueType or OpenType font. It is safe
// for concurrent use, a new face is created for every line.
type FontRenderer struct {
	font *sfnt.Font
}

// NewFontRenderer parses font data, either a single font or a collection in
// which case its first font is used. Empty data selects Go Regular.
func NewFontRenderer(data []byte) (*FontRenderer, error) {
	if len(data) == 0 {
		data = goregular.TTF
	}
	f, err := opentype.Parse(data)
	if err != nil {
		c, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		if f, err = c.Font(0); err != nil {
			return nil, fmt.Errorf("failed to read first font of collection: %w", err)
		}
	}
	return &FontRenderer{font: f}, nil
}

var default_renderer = func() *FontRenderer {
	r, err := NewFontRenderer(nil)
	if err != nil {
		panic(err)
	}
	return r
}()

func (r *FontRenderer) face(size float64) (font.Face, error) {
	return opentype.NewFace(r.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

func (r *FontRenderer) DrawText(dst draw.Image, text string, x, y int, c color.Color, size float64) error {
	face, err := r.face(size)
	if err != nil {
		return err
	}
	defer face.Close()
	d := font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(text)
	return nil
}
