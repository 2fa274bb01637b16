package loader

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/kovidgoyal/go-parallel"
	"github.com/photostrip/photostrip/tags"
	"github.com/rwcarlsen/goexif/exif"
	exif_tiff "github.com/rwcarlsen/goexif/tiff"
)

var _ = fmt.Print

// Orientation is the EXIF flag that specifies the transformation that should
// be applied to an image to display it correctly.
type Orientation int

const (
	OrientationUnspecified Orientation = iota
	OrientationNormal
	OrientationFlipH
	OrientationRotate180
	OrientationFlipV
	OrientationTranspose
	OrientationRotate270
	OrientationTransverse
	OrientationRotate90
)

// ReadOrientation returns the EXIF orientation of the image in data,
// OrientationUnspecified when there is none or it cannot be read.
func ReadOrientation(data []byte) Orientation {
	md, err := tags.Locate(data)
	if err != nil {
		return OrientationUnspecified
	}
	x, err := md.Exif()
	if err != nil || x == nil {
		return OrientationUnspecified
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil || tag == nil || tag.Format() != exif_tiff.IntVal {
		return OrientationUnspecified
	}
	if v, err := tag.Int(0); err == nil && v > 0 && v < 9 {
		return Orientation(v)
	}
	return OrientationUnspecified
}

// Orient applies the transform corresponding to o.
func Orient(img image.Image, o Orientation) (image.Image, error) {
	switch o {
	case OrientationFlipH:
		return FlipH(img)
	case OrientationFlipV:
		return FlipV(img)
	case OrientationRotate90:
		return Rotate90(img)
	case OrientationRotate180:
		return Rotate180(img)
	case OrientationRotate270:
		return Rotate270(img)
	case OrientationTranspose:
		return Transpose(img)
	case OrientationTransverse:
		return Transverse(img)
	}
	return img, nil
}

func as_nrgba(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	ans := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(ans, ans.Rect, img, b.Min, draw.Src)
	return ans
}

// transform copies every source pixel (x, y) to dest(x, y) in a new image,
// rows are processed in parallel.
func transform(img image.Image, swap bool, dest func(x, y, w, h int) (int, int)) (*image.NRGBA, error) {
	src := as_nrgba(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dw, dh := w, h
	if swap {
		dw, dh = h, w
	}
	ans := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	f := func(start, limit int) {
		for y := start; y < limit; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+w*4]
			for x := range w {
				dx, dy := dest(x, y, w, h)
				i := dy*ans.Stride + dx*4
				copy(ans.Pix[i:i+4], row[x*4:x*4+4])
			}
		}
	}
	if err := parallel.Run_in_parallel_over_range(0, f, 0, h); err != nil {
		return nil, err
	}
	return ans, nil
}

// FlipH flips the image horizontally (from left to right).
func FlipH(img image.Image) (*image.NRGBA, error) {
	return transform(img, false, func(x, y, w, h int) (int, int) { return w - 1 - x, y })
}

// FlipV flips the image vertically (from top to bottom).
func FlipV(img image.Image) (*image.NRGBA, error) {
	return transform(img, false, func(x, y, w, h int) (int, int) { return x, h - 1 - y })
}

func Rotate180(img image.Image) (*image.NRGBA, error) {
	return transform(img, false, func(x, y, w, h int) (int, int) { return w - 1 - x, h - 1 - y })
}

// Rotate90 rotates the image 90 degrees counter-clockwise.
func Rotate90(img image.Image) (*image.NRGBA, error) {
	return transform(img, true, func(x, y, w, h int) (int, int) { return y, w - 1 - x })
}

// Rotate270 rotates the image 270 degrees counter-clockwise.
func Rotate270(img image.Image) (*image.NRGBA, error) {
	return transform(img, true, func(x, y, w, h int) (int, int) { return h - 1 - y, x })
}

// Transpose flips the image horizontally and rotates 90 degrees counter-clockwise.
func Transpose(img image.Image) (*image.NRGBA, error) {
	return transform(img, true, func(x, y, w, h int) (int, int) { return y, x })
}

// Transverse flips the image vertically and rotates 90 degrees counter-clockwise.
func Transverse(img image.Image) (*image.NRGBA, error) {
	return transform(img, true, func(x, y, w, h int) (int, int) { return h - 1 - y, w - 1 - x })
}
