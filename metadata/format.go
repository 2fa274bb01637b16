package metadata

import (
	"math"

	"github.com/photostrip/photostrip/tags"
)

// FormatShutterSpeed renders an exposure time in seconds the way cameras
// show it: whole seconds as "2s", fractions as "1/200s". A missing or non
// positive time gives unknown.
func FormatShutterSpeed(t float64, ok bool, unknown string) string {
	if !ok || math.IsNaN(t) || t <= 0 {
		return unknown
	}
	if t >= 1 {
		return tags.FormatNumber(t) + "s"
	}
	return "1/" + tags.FormatNumber(math.Round(1/t)) + "s"
}

// FormatFNumber renders an aperture as "f/2.8".
func FormatFNumber(n float64, ok bool, unknown string) string {
	if !ok || n == 0 {
		return unknown
	}
	return "f/" + tags.FormatNumber(n)
}

// FormatFocalLength renders a focal length as "50mm".
func FormatFocalLength(n float64, ok bool, unknown string) string {
	if !ok || n == 0 {
		return unknown
	}
	return tags.FormatNumber(n) + "mm"
}

// APEX conversions for ApertureValue and ShutterSpeedValue
func aperture_from_apex(av float64) float64 {
	return math.Round(math.Pow(2, av/2)*10) / 10
}

func exposure_from_apex(tv float64) float64 {
	return math.Pow(2, -tv)
}
