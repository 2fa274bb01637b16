// Package compose renders the info strip below a decoded image.
package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/nfnt/resize"
	"github.com/photostrip/photostrip/loader"
	"github.com/photostrip/photostrip/metadata"
	"github.com/rs/zerolog"
)

var _ = fmt.Print

// Line is one rendered line of text, Y is its baseline.
type Line struct {
	Text  string
	X, Y  int
	Color color.NRGBA
}

// Canvas is the composited image together with the text lines drawn on it.
type Canvas struct {
	Image *image.RGBA
	Lines []Line
}

func (c *Canvas) Width() int  { return c.Image.Rect.Dx() }
func (c *Canvas) Height() int { return c.Image.Rect.Dy() }

type Compositor struct {
	layout   Layout
	catalog  metadata.Catalog
	renderer TextRenderer
	maxWidth int
	log      zerolog.Logger
}

// Option sets an optional parameter of a Compositor.
type Option func(*Compositor)

func WithLayout(l Layout) Option {
	return func(c *Compositor) {
		c.layout = l
	}
}

// WithCatalog sets the labels and the notice prefix of the strip.
func WithCatalog(cat metadata.Catalog) Option {
	return func(c *Compositor) {
		c.catalog = cat
	}
}

func WithRenderer(r TextRenderer) Option {
	return func(c *Compositor) {
		c.renderer = r
	}
}

// WithMaxWidth downscales images wider than n pixels, keeping the aspect
// ratio, before they are composited. Zero disables scaling, the default.
func WithMaxWidth(n int) Option {
	return func(c *Compositor) {
		c.maxWidth = n
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Compositor) {
		c.log = l
	}
}

func New(opts ...Option) *Compositor {
	ans := &Compositor{layout: DefaultLayout, catalog: metadata.Default, renderer: default_renderer, log: zerolog.Nop()}
	for _, option := range opts {
		option(ans)
	}
	return ans
}

func (c *Compositor) scaled(img image.Image) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if c.maxWidth <= 0 || w <= c.maxWidth {
		return img
	}
	nh := max(1, h*c.maxWidth/w)
	c.log.Debug().Int("width", w).Int("height", h).Int("scaled_width", c.maxWidth).Int("scaled_height", nh).Msg("downscaling image")
	return resize.Resize(uint(c.maxWidth), uint(nh), img, resize.Lanczos3)
}

// lines lays out the text of rec, baselines relative to the top of the strip.
func (c *Compositor) lines(rec metadata.Record) (ans []Line) {
	l := c.layout
	y := l.FirstBaseline
	add := func(text string, col color.NRGBA) {
		ans = append(ans, Line{Text: text, X: l.Margin, Y: y, Color: col})
		y += l.LineHeight
	}
	switch rec.Kind {
	case metadata.Error:
		add(c.catalog.Notice+": "+rec.Message, l.ErrorColor)
		return
	case metadata.Warning:
		add(c.catalog.Notice+": "+rec.Message, l.WarningColor)
	}
	seen := make(map[metadata.FieldKey]bool, len(rec.Fields))
	field := func(key metadata.FieldKey, value string) {
		seen[key] = true
		if value != "" {
			add(c.catalog.Label(key)+": "+value, l.TextColor)
		}
	}
	for _, key := range metadata.FieldOrder {
		if v, ok := rec.Get(key); ok {
			field(key, v)
		}
	}
	for _, f := range rec.Fields {
		if !seen[f.Key] {
			field(f.Key, f.Value)
		}
	}
	return
}

// Composite draws img on a white canvas extended by the strip height, then
// the strip background and the text of rec inside the strip.
func (c *Compositor) Composite(d *loader.Decoded, rec metadata.Record) (*Canvas, error) {
	img := c.scaled(d.Image)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	canvas := &Canvas{Image: image.NewRGBA(image.Rect(0, 0, w, h+c.layout.StripHeight))}
	draw.Draw(canvas.Image, canvas.Image.Rect, image.NewUniform(white), image.Point{}, draw.Src)
	draw.Draw(canvas.Image, image.Rect(0, 0, w, h), img, b.Min, draw.Src)
	if c.layout.Background != white {
		strip := image.Rect(0, h, w, h+c.layout.StripHeight)
		draw.Draw(canvas.Image, strip, image.NewUniform(c.layout.Background), image.Point{}, draw.Over)
	}
	for _, line := range c.lines(rec) {
		line.Y += h
		if err := c.renderer.DrawText(canvas.Image, line.Text, line.X, line.Y, line.Color, c.layout.FontSize); err != nil {
			return nil, fmt.Errorf("failed to draw %#v: %w", line.Text, err)
		}
		canvas.Lines = append(canvas.Lines, line)
	}
	c.log.Debug().Int("width", canvas.Width()).Int("height", canvas.Height()).Int("lines", len(canvas.Lines)).Msg("composited")
	return canvas, nil
}
