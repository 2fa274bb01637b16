package photostrip

import (
	"fmt"
	"os"

	"github.com/photostrip/photostrip/compose"
	"github.com/photostrip/photostrip/encode"
	"github.com/photostrip/photostrip/loader"
	"github.com/photostrip/photostrip/metadata"
	"github.com/photostrip/photostrip/tags"
	"github.com/photostrip/photostrip/templates"
	"github.com/photostrip/photostrip/types"
	"github.com/rs/zerolog"
)

type config struct {
	log             zerolog.Logger
	catalog         metadata.Catalog
	font            []byte
	template        *templates.Template
	decoder         tags.Decoder
	autoOrientation bool
	apexFallback    bool
	maxWidth        int
	encodeOptions   []encode.Option
}

// Option sets an optional parameter of a Pipeline.
type Option func(*config)

// WithLogger sets the logger shared by all stages. Defaults to a disabled
// logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// WithCatalog sets the messages, placeholders and labels, metadata.Default by
// default.
func WithCatalog(cat metadata.Catalog) Option {
	return func(c *config) {
		c.catalog = cat
	}
}

// WithFont sets the TrueType/OpenType font (or font collection) the strip is
// rendered with. Use a font with CJK glyphs to render the Chinese labels.
func WithFont(data []byte) Option {
	return func(c *config) {
		c.font = data
	}
}

// WithTemplate derives the strip layout from t, which must position its
// watermark at the bottom.
func WithTemplate(t templates.Template) Option {
	return func(c *config) {
		c.template = &t
	}
}

// WithDecoder replaces the tag decoder used for metadata extraction.
func WithDecoder(d tags.Decoder) Option {
	return func(c *config) {
		c.decoder = d
	}
}

// WithAutoOrientation controls whether the EXIF orientation is applied to
// the pixels. Enabled by default.
func WithAutoOrientation(enabled bool) Option {
	return func(c *config) {
		c.autoOrientation = enabled
	}
}

// WithAPEXFallback enables deriving aperture and shutter speed from the
// APEX tags when FNumber or ExposureTime are missing.
func WithAPEXFallback(enabled bool) Option {
	return func(c *config) {
		c.apexFallback = enabled
	}
}

// WithMaxWidth downscales images wider than n before compositing.
func WithMaxWidth(n int) Option {
	return func(c *config) {
		c.maxWidth = n
	}
}

// WithEncodeOptions passes options to the encoder.
func WithEncodeOptions(opts ...encode.Option) Option {
	return func(c *config) {
		c.encodeOptions = append(c.encodeOptions, opts...)
	}
}

// Pipeline runs extraction, decoding, composition and encoding for one image
// per Process call. It is safe for concurrent use.
type Pipeline struct {
	extractor     *metadata.Extractor
	loader        *loader.Loader
	compositor    *compose.Compositor
	encodeOptions []encode.Option
	log           zerolog.Logger
}

func New(opts ...Option) (*Pipeline, error) {
	cfg := config{log: zerolog.Nop(), catalog: metadata.Default, decoder: tags.ExifDecoder{}, autoOrientation: true}
	for _, option := range opts {
		option(&cfg)
	}
	renderer, err := compose.NewFontRenderer(cfg.font)
	if err != nil {
		return nil, err
	}
	layout := compose.DefaultLayout
	if cfg.template != nil {
		if layout, err = compose.LayoutFromTemplate(*cfg.template); err != nil {
			return nil, err
		}
	}
	return &Pipeline{
		extractor: metadata.NewExtractor(
			metadata.WithLogger(cfg.log.With().Str("stage", "metadata").Logger()),
			metadata.WithCatalog(cfg.catalog),
			metadata.WithDecoder(cfg.decoder),
			metadata.WithAPEXFallback(cfg.apexFallback),
		),
		loader: loader.New(
			loader.WithLogger(cfg.log.With().Str("stage", "loader").Logger()),
			loader.WithAutoOrientation(cfg.autoOrientation),
		),
		compositor: compose.New(
			compose.WithLogger(cfg.log.With().Str("stage", "compose").Logger()),
			compose.WithCatalog(cfg.catalog),
			compose.WithRenderer(renderer),
			compose.WithLayout(layout),
			compose.WithMaxWidth(cfg.maxWidth),
		),
		encodeOptions: cfg.encodeOptions,
		log:           cfg.log,
	}, nil
}

// Result holds the outcome of every stage of a successful Process call.
type Result struct {
	Record metadata.Record
	Image  *loader.Decoded
	Canvas *compose.Canvas
	Output *encode.Encoded
}

// Process annotates img. Metadata problems are reported in Result.Record and
// in the strip. The only errors are a *loader.LoadError when the image
// cannot be decoded and errors from rendering or encoding.
func (p *Pipeline) Process(img types.RawImage) (*Result, error) {
	records := make(chan metadata.Record, 1)
	go func() {
		records <- p.extractor.Extract(img)
	}()
	decoded, err := p.loader.Load(img)
	rec := <-records
	if err != nil {
		return nil, err
	}
	p.log.Debug().Str("kind", rec.Kind.String()).Int("width", decoded.Width).Int("height", decoded.Height).Msg("image loaded")

	canvas, err := p.compositor.Composite(decoded, rec)
	if err != nil {
		return nil, err
	}
	out, err := encode.Bytes(canvas.Image, img.MIMEType, p.encodeOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotated image: %w", err)
	}
	if types.FormatFromMIME(img.MIMEType).MIMEType() != out.MIMEType {
		p.log.Debug().Str("requested", img.MIMEType).Str("written", out.MIMEType).Msg("no encoder for the input format, fell back")
	}
	return &Result{Record: rec, Image: decoded, Canvas: canvas, Output: out}, nil
}

// ProcessFile reads and annotates the image at path. The MIME type comes from
// the file extension, or the file contents when the extension is not known.
func (p *Pipeline) ProcessFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Process(types.RawImage{Data: data, MIMEType: DetectMIME(path, data)})
}

// DetectMIME returns the MIME type of an image file from its name, falling
// back to sniffing data.
func DetectMIME(path string, data []byte) string {
	if m := types.MIMEFromFilename(path); m != "" {
		return m
	}
	return types.DetectFormat(data).MIMEType()
}
