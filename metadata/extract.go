// Package metadata turns the camera tags embedded in an image into a display
// ready Record. Extraction never fails: problems with the metadata itself
// are reported in band as Warning or Error records.
package metadata

import (
	"fmt"
	"sort"

	"github.com/photostrip/photostrip/tags"
	"github.com/photostrip/photostrip/types"
	"github.com/rs/zerolog"
)

// Picks are the tag names requested from the decoder.
var Picks = []string{
	"Make", "Model", "FNumber", "ExposureTime", "ISO",
	"ISOSpeedRatings", "ExposureProgram", "FocalLength",
	"ApertureValue", "ShutterSpeedValue",
}

type Extractor struct {
	decoder      tags.Decoder
	log          zerolog.Logger
	catalog      Catalog
	apexFallback bool
}

// Option sets an optional parameter of an Extractor.
type Option func(*Extractor)

// WithDecoder replaces the tag decoder, tags.ExifDecoder by default.
func WithDecoder(d tags.Decoder) Option {
	return func(e *Extractor) {
		e.decoder = d
	}
}

// WithLogger sets the logger diagnostics are written to. Defaults to a
// disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Extractor) {
		e.log = l
	}
}

// WithCatalog sets the strings used for messages and placeholders.
func WithCatalog(c Catalog) Option {
	return func(e *Extractor) {
		e.catalog = c
	}
}

// WithAPEXFallback derives the aperture and exposure time from the APEX
// ApertureValue and ShutterSpeedValue tags when FNumber or ExposureTime are
// missing. Off by default.
func WithAPEXFallback(enabled bool) Option {
	return func(e *Extractor) {
		e.apexFallback = enabled
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{decoder: tags.ExifDecoder{}, log: zerolog.Nop(), catalog: Default}
	for _, option := range opts {
		option(e)
	}
	return e
}

type field_rule struct {
	key    FieldKey
	format func(e *Extractor, t tags.Tags) string
}

var field_rules = []field_rule{
	{Make, func(e *Extractor, t tags.Tags) string { return e.text(t, "Make") }},
	{Model, func(e *Extractor, t tags.Tags) string { return e.text(t, "Model") }},
	{FNumber, func(e *Extractor, t tags.Tags) string {
		n, ok := t.Number("FNumber")
		if !ok && e.apexFallback {
			if av, found := t.Number("ApertureValue"); found {
				n, ok = aperture_from_apex(av), true
			}
		}
		return FormatFNumber(n, ok, e.catalog.Unknown)
	}},
	{ExposureTime, func(e *Extractor, t tags.Tags) string {
		s, ok := t.Number("ExposureTime")
		if !ok && e.apexFallback {
			if tv, found := t.Number("ShutterSpeedValue"); found {
				s, ok = exposure_from_apex(tv), true
			}
		}
		return FormatShutterSpeed(s, ok, e.catalog.Unknown)
	}},
	{ISO, func(e *Extractor, t tags.Tags) string { return e.text(t, "ISO", "ISOSpeedRatings") }},
	{FocalLength, func(e *Extractor, t tags.Tags) string {
		n, ok := t.Number("FocalLength")
		return FormatFocalLength(n, ok, e.catalog.Unknown)
	}},
}

func (e *Extractor) text(t tags.Tags, names ...string) string {
	if s, ok := t.String(names...); ok {
		return s
	}
	return e.catalog.Unknown
}

func (e *Extractor) failed() Record {
	return Record{Kind: Error, Message: e.catalog.MetadataFailed, Fields: placeholders(e.catalog.Unknown, Make, Model)}
}

// Extract builds the Record for img. It never returns a decoder error or
// lets a decoder panic escape, those become Error records.
func (e *Extractor) Extract(img types.RawImage) (rec Record) {
	if !types.IsImageMIME(img.MIMEType) {
		e.log.Warn().Str("mime", img.MIMEType).Msg("input is not an image")
		return Record{Kind: Error, Message: e.catalog.NotAnImage}
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("panic", fmt.Sprint(r)).Msg("failed to read metadata")
			rec = e.failed()
		}
	}()
	e.log.Debug().Str("mime", img.MIMEType).Int("size", len(img.Data)).Msg("parsing metadata")

	if all, err := e.decoder.Decode(img.Data, tags.Options{Blocks: tags.AllBlocks}); err == nil {
		names := all.Names()
		sort.Strings(names)
		e.log.Debug().Int("count", len(names)).Strs("tags", names).Msg("all metadata tags")
	}

	picked, err := e.decoder.Decode(img.Data, tags.Options{Blocks: tags.AllBlocks, Pick: Picks})
	if err != nil {
		e.log.Error().Err(err).Msg("failed to read metadata")
		return e.failed()
	}
	if len(picked) == 0 {
		e.log.Warn().Msg("no metadata found")
		return Record{
			Kind: Warning, Message: e.catalog.MetadataUnavailable,
			Fields: placeholders(e.catalog.Unknown, Make, Model, FNumber, ExposureTime, ISO),
		}
	}
	rec.Kind = Normal
	rec.Fields = make([]Field, 0, len(field_rules))
	for _, rule := range field_rules {
		rec.Fields = append(rec.Fields, Field{Key: rule.key, Value: rule.format(e, picked)})
	}
	e.log.Debug().Interface("record", rec.Map()).Msg("metadata parsed")
	return rec
}
