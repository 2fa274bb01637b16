package compose

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/photostrip/photostrip/templates"
)

// ErrUnsupportedLayout is returned for templates whose watermark is not a
// strip below the image.
var ErrUnsupportedLayout = errors.New("unsupported watermark layout")

// Layout describes the geometry and colors of the info strip. All distances
// are in pixels, baselines are relative to the top of the strip.
type Layout struct {
	StripHeight   int
	Margin        int
	FirstBaseline int
	LineHeight    int
	FontSize      float64
	Background    color.NRGBA
	TextColor     color.NRGBA
	WarningColor  color.NRGBA
	ErrorColor    color.NRGBA
}

var (
	white  = color.NRGBA{0xff, 0xff, 0xff, 0xff}
	black  = color.NRGBA{0, 0, 0, 0xff}
	orange = color.NRGBA{0xff, 0xa5, 0, 0xff}
	red    = color.NRGBA{0xff, 0, 0, 0xff}
)

// DefaultLayout is a 200px white strip with 20px text.
var DefaultLayout = Layout{
	StripHeight:   200,
	Margin:        20,
	FirstBaseline: 30,
	LineHeight:    20,
	FontSize:      20,
	Background:    white,
	TextColor:     black,
	WarningColor:  orange,
	ErrorColor:    red,
}

func with_opacity(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity > 0 && opacity < 1 {
		c.A = uint8(float64(c.A)*opacity + 0.5)
	}
	return c
}

// LayoutFromTemplate derives a Layout from a bottom positioned template. The
// style opacity applies to the strip background.
func LayoutFromTemplate(t templates.Template) (Layout, error) {
	if t.Watermark.Position != "bottom" {
		return Layout{}, fmt.Errorf("%w: %s positioned watermark in template %s", ErrUnsupportedLayout, t.Watermark.Position, t.ID)
	}
	if t.Watermark.Height.Percent {
		return Layout{}, fmt.Errorf("%w: percentage strip height in template %s", ErrUnsupportedLayout, t.ID)
	}
	ans := DefaultLayout
	if !t.Watermark.Height.IsZero() {
		ans.StripHeight = t.Watermark.Height.Resolve(0)
	}
	if t.Watermark.Padding > 0 {
		ans.Margin = t.Watermark.Padding
	}
	opacity := 1.0
	var err error
	if t.Watermark.BackgroundColor != "" {
		if ans.Background, err = templates.ParseHexColor(t.Watermark.BackgroundColor); err != nil {
			return Layout{}, err
		}
	}
	if t.Style != nil {
		if t.Style.FontSize > 0 {
			ans.FontSize = t.Style.FontSize
			ans.LineHeight = int(t.Style.FontSize)
		}
		if t.Style.Color != "" {
			if ans.TextColor, err = templates.ParseHexColor(t.Style.Color); err != nil {
				return Layout{}, err
			}
		}
		if t.Style.Background != "" {
			if ans.Background, err = templates.ParseHexColor(t.Style.Background); err != nil {
				return Layout{}, err
			}
		}
		if t.Style.Opacity > 0 {
			opacity = t.Style.Opacity
		}
	}
	ans.FirstBaseline = ans.Margin + int(ans.FontSize)/2
	ans.Background = with_opacity(ans.Background, opacity)
	return ans, nil
}
