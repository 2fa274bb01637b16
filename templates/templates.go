// Package templates holds the static catalog of watermark templates, the
// built-in presets and a YAML loader for custom catalogs.
package templates

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var _ = fmt.Print

// Dimension is a size given either in pixels or as a percentage of the
// image size ("100%").
type Dimension struct {
	Value   float64
	Percent bool
}

func Pixels(n float64) Dimension   { return Dimension{Value: n} }
func Percent(n float64) Dimension  { return Dimension{Value: n, Percent: true} }
func (d Dimension) IsZero() bool   { return d.Value == 0 }
func (d Dimension) String() string { return d.text() }

func (d Dimension) text() string {
	s := strconv.FormatFloat(d.Value, 'f', -1, 64)
	if d.Percent {
		return s + "%"
	}
	return s
}

// Resolve returns the size in pixels, relative to total for percentages.
func (d Dimension) Resolve(total int) int {
	if d.Percent {
		return int(float64(total) * d.Value / 100)
	}
	return int(d.Value)
}

func ParseDimension(s string) (Dimension, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil || v < 0 {
		return Dimension{}, fmt.Errorf("invalid dimension: %#v", s)
	}
	return Dimension{Value: v, Percent: percent}, nil
}

func (d *Dimension) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: dimension must be a number or a percentage", node.Line)
	}
	ans, err := ParseDimension(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = ans
	return nil
}

func (d Dimension) MarshalYAML() (any, error) {
	if d.Percent {
		return d.text(), nil
	}
	return d.Value, nil
}

type Watermark struct {
	// Position is one of top, bottom, left or right
	Position        string    `yaml:"position"`
	Width           Dimension `yaml:"width"`
	Height          Dimension `yaml:"height"`
	Padding         int       `yaml:"padding,omitempty"`
	BackgroundColor string    `yaml:"backgroundColor,omitempty"`
}

type Style struct {
	Font       string  `yaml:"font,omitempty"`
	FontSize   float64 `yaml:"fontSize,omitempty"`
	Color      string  `yaml:"color,omitempty"`
	Background string  `yaml:"background,omitempty"`
	Opacity    float64 `yaml:"opacity,omitempty"`
}

type Template struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	Preview   string    `yaml:"preview,omitempty"`
	Layout    string    `yaml:"layout"`
	Watermark Watermark `yaml:"watermark"`
	Style     *Style    `yaml:"style,omitempty"`
}

type Catalog []Template

// Presets are the built-in templates.
var Presets = Catalog{
	{
		ID: "bottom-strip", Name: "底部条状", Preview: "/templates/bottom.png", Layout: "horizontal",
		Watermark: Watermark{Position: "bottom", Width: Percent(100), Height: Pixels(200), Padding: 20, BackgroundColor: "#ffffff"},
		Style:     &Style{Font: "Arial", FontSize: 20, Color: "#000000", Opacity: 1},
	},
	{
		ID: "right-panel", Name: "右侧面板", Preview: "/templates/right.png", Layout: "vertical",
		Watermark: Watermark{Position: "right", Width: Pixels(300), Height: Percent(100), Padding: 20, BackgroundColor: "#f5f5f5"},
		Style:     &Style{Font: "Arial", FontSize: 20, Color: "#333333", Opacity: 1},
	},
}

// Find returns the template with the given id.
func (c Catalog) Find(id string) (Template, bool) {
	for _, t := range c {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

var positions = map[string]bool{"top": true, "bottom": true, "left": true, "right": true}
var layouts = map[string]bool{"horizontal": true, "vertical": true}

func (t Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("template has no id")
	}
	if !layouts[t.Layout] {
		return fmt.Errorf("template %s: unknown layout: %#v", t.ID, t.Layout)
	}
	if !positions[t.Watermark.Position] {
		return fmt.Errorf("template %s: unknown watermark position: %#v", t.ID, t.Watermark.Position)
	}
	for _, c := range []string{t.Watermark.BackgroundColor, t.style().Color, t.style().Background} {
		if c != "" {
			if _, err := ParseHexColor(c); err != nil {
				return fmt.Errorf("template %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

func (t Template) style() Style {
	if t.Style == nil {
		return Style{}
	}
	return *t.Style
}

type document struct {
	Templates Catalog `yaml:"templates"`
}

// Load reads a catalog from a YAML document with a top level templates list.
func Load(r io.Reader) (Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}
	seen := make(map[string]bool, len(doc.Templates))
	for _, t := range doc.Templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("duplicate template id: %s", t.ID)
		}
		seen[t.ID] = true
	}
	return doc.Templates, nil
}

// Save writes the catalog in the format read by Load.
func (c Catalog) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Templates: c}); err != nil {
		return err
	}
	return enc.Close()
}

// ParseHexColor parses #rgb, #rrggbb and #rrggbbaa colors.
func ParseHexColor(s string) (ans color.NRGBA, err error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return ans, fmt.Errorf("invalid color: %#v", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return ans, fmt.Errorf("invalid color: %#v", s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
