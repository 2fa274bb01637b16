package compose

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/photostrip/photostrip/internal/exiftest"
	"github.com/photostrip/photostrip/loader"
	"github.com/photostrip/photostrip/metadata"
	"github.com/photostrip/photostrip/templates"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	text string
	x, y int
	c    color.Color
	size float64
}

type recording_renderer struct{ calls []recorded }

func (r *recording_renderer) DrawText(dst draw.Image, text string, x, y int, c color.Color, size float64) error {
	r.calls = append(r.calls, recorded{text, x, y, c, size})
	return nil
}

type broken_renderer struct{}

func (broken_renderer) DrawText(draw.Image, string, int, int, color.Color, float64) error {
	return errors.New("no glyphs")
}

func decoded(img image.Image) *loader.Decoded {
	return &loader.Decoded{Image: img, Width: img.Bounds().Dx(), Height: img.Bounds().Dy(), Frames: 1}
}

var canon = metadata.Record{Kind: metadata.Normal, Fields: []metadata.Field{
	{Key: metadata.Make, Value: "Canon"},
	{Key: metadata.Model, Value: "EOS R5"},
	{Key: metadata.FNumber, Value: "f/2.8"},
	{Key: metadata.ExposureTime, Value: "1/200s"},
	{Key: metadata.ISO, Value: "400"},
	{Key: metadata.FocalLength, Value: "50mm"},
}}

func texts(lines []Line) []string {
	ans := make([]string, len(lines))
	for i, l := range lines {
		ans[i] = l.Text
	}
	return ans
}

func TestComposite(t *testing.T) {
	t.Run("camera photo", func(t *testing.T) {
		r := &recording_renderer{}
		c, err := New(WithRenderer(r)).Composite(decoded(image.NewRGBA(image.Rect(0, 0, 4000, 3000))), canon)
		require.NoError(t, err)
		require.Equal(t, 4000, c.Width())
		require.Equal(t, 3200, c.Height())
		expected := []Line{
			{"相机品牌: Canon", 20, 3030, black},
			{"相机型号: EOS R5", 20, 3050, black},
			{"光圈: f/2.8", 20, 3070, black},
			{"快门速度: 1/200s", 20, 3090, black},
			{"ISO: 400", 20, 3110, black},
			{"focalLength: 50mm", 20, 3130, black},
		}
		if diff := cmp.Diff(expected, c.Lines); diff != "" {
			t.Fatalf("unexpected lines (-want +got):\n%s", diff)
		}
		require.Len(t, r.calls, 6)
		require.Equal(t, recorded{"相机品牌: Canon", 20, 3030, black, 20}, r.calls[0])
	})

	t.Run("pixels are copied and the strip is white", func(t *testing.T) {
		src := exiftest.Pixels(6, 4)
		c, err := New(WithRenderer(&recording_renderer{})).Composite(decoded(src), canon)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, 6, 204), c.Image.Rect)
		for y := range 4 {
			for x := range 6 {
				require.Equal(t, color.RGBAModel.Convert(src.At(x, y)), c.Image.At(x, y))
			}
		}
		for _, p := range []image.Point{{0, 4}, {5, 100}, {3, 203}} {
			require.Equal(t, color.RGBA{255, 255, 255, 255}, c.Image.At(p.X, p.Y))
		}
	})

	t.Run("warning", func(t *testing.T) {
		rec := metadata.Record{Kind: metadata.Warning, Message: "metadata unavailable", Fields: []metadata.Field{
			{Key: metadata.Make, Value: "unknown"}, {Key: metadata.Model, Value: "unknown"},
			{Key: metadata.FNumber, Value: "unknown"}, {Key: metadata.ExposureTime, Value: "unknown"},
			{Key: metadata.ISO, Value: "unknown"},
		}}
		c, err := New(WithRenderer(&recording_renderer{})).Composite(decoded(exiftest.Pixels(10, 10)), rec)
		require.NoError(t, err)
		require.Len(t, c.Lines, 6)
		require.Equal(t, Line{"提示: metadata unavailable", 20, 40, orange}, c.Lines[0])
		require.Equal(t, Line{"相机品牌: unknown", 20, 60, black}, c.Lines[1])
		require.Equal(t, "ISO: unknown", c.Lines[5].Text)
	})

	t.Run("error stops after the message", func(t *testing.T) {
		rec := metadata.Record{Kind: metadata.Error, Message: "failed to read metadata", Fields: []metadata.Field{
			{Key: metadata.Make, Value: "unknown"}, {Key: metadata.Model, Value: "unknown"},
		}}
		c, err := New(WithRenderer(&recording_renderer{})).Composite(decoded(exiftest.Pixels(10, 10)), rec)
		require.NoError(t, err)
		require.Equal(t, []Line{{"提示: failed to read metadata", 20, 40, red}}, c.Lines)
	})

	t.Run("empty values are skipped and extra keys follow", func(t *testing.T) {
		rec := metadata.Record{Kind: metadata.Normal, Fields: []metadata.Field{
			{Key: "lens", Value: "RF 50mm"},
			{Key: metadata.ISO, Value: "100"},
			{Key: metadata.Make, Value: ""},
			{Key: metadata.Model, Value: "Z6"},
		}}
		c, err := New(WithRenderer(&recording_renderer{})).Composite(decoded(exiftest.Pixels(10, 10)), rec)
		require.NoError(t, err)
		require.Equal(t, []string{"相机型号: Z6", "ISO: 100", "lens: RF 50mm"}, texts(c.Lines))
	})

	t.Run("localized catalog", func(t *testing.T) {
		rec := metadata.Record{Kind: metadata.Error, Message: "不是有效的图片文件"}
		c, err := New(WithRenderer(&recording_renderer{}), WithCatalog(metadata.Chinese)).Composite(decoded(exiftest.Pixels(2, 2)), rec)
		require.NoError(t, err)
		require.Equal(t, []string{"提示: 不是有效的图片文件"}, texts(c.Lines))
	})

	t.Run("renderer failure", func(t *testing.T) {
		_, err := New(WithRenderer(broken_renderer{})).Composite(decoded(exiftest.Pixels(2, 2)), canon)
		require.Error(t, err)
	})

	t.Run("max width downscales", func(t *testing.T) {
		c, err := New(WithRenderer(&recording_renderer{}), WithMaxWidth(50)).Composite(decoded(image.NewRGBA(image.Rect(0, 0, 200, 100))), canon)
		require.NoError(t, err)
		require.Equal(t, 50, c.Width())
		require.Equal(t, 225, c.Height())
		require.Equal(t, 25+30, c.Lines[0].Y)
	})

	t.Run("text is drawn with the default font", func(t *testing.T) {
		c, err := New().Composite(decoded(exiftest.Pixels(300, 10)), canon)
		require.NoError(t, err)
		dark := 0
		for y := 10; y < c.Height(); y++ {
			for x := range c.Width() {
				if c.Image.RGBAAt(x, y).R < 128 {
					dark++
				}
			}
		}
		require.Greater(t, dark, 100)
	})
}

func TestLayoutFromTemplate(t *testing.T) {
	b, _ := templates.Presets.Find("bottom-strip")
	l, err := LayoutFromTemplate(b)
	require.NoError(t, err)
	require.Equal(t, DefaultLayout, l)

	r, _ := templates.Presets.Find("right-panel")
	_, err = LayoutFromTemplate(r)
	require.ErrorIs(t, err, ErrUnsupportedLayout)

	custom := templates.Template{ID: "film", Layout: "horizontal",
		Watermark: templates.Watermark{Position: "bottom", Height: templates.Pixels(120), Padding: 10, BackgroundColor: "#000000"},
		Style:     &templates.Style{FontSize: 16, Color: "#ffffff", Opacity: 0.5},
	}
	l, err = LayoutFromTemplate(custom)
	require.NoError(t, err)
	require.Equal(t, 120, l.StripHeight)
	require.Equal(t, 10, l.Margin)
	require.Equal(t, 18, l.FirstBaseline)
	require.Equal(t, 16, l.LineHeight)
	require.Equal(t, color.NRGBA{0, 0, 0, 128}, l.Background)
	require.Equal(t, white, l.TextColor)

	c, err := New(WithLayout(l), WithRenderer(&recording_renderer{})).Composite(decoded(exiftest.Pixels(4, 4)), canon)
	require.NoError(t, err)
	require.Equal(t, 124, c.Height())
	require.Equal(t, color.RGBA{127, 127, 127, 255}, c.Image.RGBAAt(0, 50))
}
