package tags

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/photostrip/photostrip/types"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

var _ = fmt.Println

func init() {
	exif.RegisterParsers(mknote.All...)
}

// ErrMalformed is returned when a container is truncated or its segment
// structure cannot be walked.
var ErrMalformed = errors.New("malformed metadata container")

// Blocks holds the embedded metadata segments found in an image container.
// The TIFF/EXIF block is decoded lazily on first use.
type Blocks struct {
	Format   types.Format
	XMP      []byte
	IPTC     []byte
	ICC      []byte
	exifData []byte
	exif     *exif.Exif
	exifErr  error
	mutex    sync.Mutex
}

// Exif returns the decoded EXIF block.
//
// An error is returned if the block could not be correctly parsed, blocks
// with IFD entries that cannot fit in the block are rejected with
// ErrMalformed before goexif reads them. Errors
// goexif reports as non-critical are dropped since the returned object is
// still usable.
//
// If no EXIF block was found, nil is returned without an error.
func (md *Blocks) Exif() (*exif.Exif, error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()

	if md.exifErr != nil {
		return nil, md.exifErr
	}
	if md.exif != nil {
		return md.exif, nil
	}
	if len(md.exifData) == 0 {
		return nil, nil
	}
	if md.exifErr = check_tiff(md.exifData); md.exifErr != nil {
		return nil, md.exifErr
	}
	md.exif, md.exifErr = exif.Decode(bytes.NewReader(md.exifData))
	if md.exifErr != nil {
		if md.exif != nil && !exif.IsCriticalError(md.exifErr) {
			md.exifErr = nil
		} else {
			md.exif = nil
		}
	}
	return md.exif, md.exifErr
}

func (md *Blocks) ExifData() []byte {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	return md.exifData
}

// Empty reports whether no metadata block at all was found.
func (md *Blocks) Empty() bool {
	return len(md.ExifData()) == 0 && len(md.XMP) == 0 && len(md.IPTC) == 0 && len(md.ICC) == 0
}

// Locate walks the container structure of data and collects its metadata
// blocks. Containers without a known metadata layout (GIF, BMP, unrecognised
// data) yield empty Blocks and no error.
func Locate(data []byte) (*Blocks, error) {
	md := &Blocks{Format: types.DetectFormat(data)}
	locators := map[types.Format]func([]byte, *Blocks) error{
		types.JPEG: locate_jpeg,
		types.PNG:  locate_png,
		types.WEBP: locate_webp,
		types.TIFF: locate_tiff,
	}
	if locator := locators[md.Format]; locator != nil {
		if err := locator(data, md); err != nil {
			return nil, fmt.Errorf("%s: %w", md.Format, err)
		}
	}
	return md, nil
}
