// Package raster decodes the source artwork and resamples it into square
// icon rasters.
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/sergeymakinen/go-ico"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	perrors "github.com/provide-io/pwakit/pkg/pwa/errors"
)

// Decode sniffs the image format from the content and returns the image
// normalized to the working pixel format (8-bit non-premultiplied RGBA,
// origin at 0,0) together with the detected format name.
func Decode(data []byte) (*image.NRGBA, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", perrors.ErrDecode)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", perrors.ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, format, fmt.Errorf("%w: %s image has no pixels", perrors.ErrDecode, format)
	}

	return Normalize(img), format, nil
}

// Normalize converts any image into an NRGBA image anchored at the origin.
func Normalize(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
