/*
Package photostrip annotates photos with their camera settings.

A Pipeline reads the EXIF (and XMP) metadata of an image, decodes its pixels,
and renders a strip below the image listing camera make and model, aperture,
shutter speed, ISO and focal length. The result is encoded back in the format
of the input. Images without usable metadata get a notice in the strip
instead, only images that fail to decode are errors.
*/
package photostrip

import "fmt"

type PhotostripVersion struct {
	Major, Minor, Patch uint
}

func (v PhotostripVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v PhotostripVersion) Equal(o PhotostripVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v PhotostripVersion) After(o PhotostripVersion) bool {
	switch {
	case v.Major != o.Major:
		return v.Major > o.Major
	case v.Minor != o.Minor:
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

func (v PhotostripVersion) Before(o PhotostripVersion) bool {
	return !v.Equal(o) && !v.After(o)
}

var Version = PhotostripVersion{1, 0, 0}
