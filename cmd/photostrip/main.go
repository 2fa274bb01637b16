package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/photostrip/photostrip"
	"github.com/photostrip/photostrip/metadata"
	"github.com/photostrip/photostrip/templates"
	"github.com/photostrip/photostrip/types"
	"github.com/rs/zerolog"
)

var _ = fmt.Print

func output_path(input string, mime string) string {
	ext := "." + strings.ToLower(types.FormatFromMIME(mime).String())
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "-strip" + ext
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	output := flag.String("o", "", "output file, defaults to INPUT-strip.EXT")
	template_id := flag.String("template", "", "id of the template that lays out the strip")
	catalog_path := flag.String("templates", "", "YAML template catalog, defaults to the built-in presets")
	font_path := flag.String("font", "", "TrueType/OpenType font to render the strip with")
	locale := flag.String("locale", "default", "strings for messages and placeholders: default or zh")
	no_orient := flag.Bool("no-orient", false, "do not apply the EXIF orientation")
	apex := flag.Bool("apex", false, "derive aperture and shutter speed from APEX tags when missing")
	max_width := flag.Int("max-width", 0, "downscale images wider than this")
	data_uri := flag.Bool("data-uri", false, "print the result as a data: URI instead of writing a file")
	verbose := flag.Bool("v", false, "log debug output")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: photostrip [options] input-file")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	catalog, ok := metadata.Catalogs[*locale]
	if !ok {
		err = fmt.Errorf("unknown locale: %s", *locale)
		return
	}
	opts := []photostrip.Option{
		photostrip.WithLogger(log),
		photostrip.WithCatalog(catalog),
		photostrip.WithAutoOrientation(!*no_orient),
		photostrip.WithAPEXFallback(*apex),
		photostrip.WithMaxWidth(*max_width),
	}
	if *font_path != "" {
		var font []byte
		if font, err = os.ReadFile(*font_path); err != nil {
			return
		}
		opts = append(opts, photostrip.WithFont(font))
	}
	if *template_id != "" {
		presets := templates.Presets
		if *catalog_path != "" {
			var f *os.File
			if f, err = os.Open(*catalog_path); err != nil {
				return
			}
			presets, err = templates.Load(f)
			f.Close()
			if err != nil {
				return
			}
		}
		t, found := presets.Find(*template_id)
		if !found {
			err = fmt.Errorf("no template with id: %s", *template_id)
			return
		}
		opts = append(opts, photostrip.WithTemplate(t))
	}

	p, err := photostrip.New(opts...)
	if err != nil {
		return
	}
	res, err := p.ProcessFile(input)
	if err != nil {
		return
	}
	if *data_uri {
		fmt.Println(res.Output.DataURI())
		return
	}
	output_file := *output
	if output_file == "" {
		output_file = output_path(input, res.Output.MIMEType)
	}
	if err = os.WriteFile(output_file, res.Output.Data, 0o666); err != nil {
		return
	}
	fmt.Println("Annotated image saved to:", output_file)
}
